package main

import (
	"encoding/base64"
	"fmt"

	"github.com/kembridge/kembridge-core/internal/constants"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh base64-encoded process master key",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := qcrypto.SecureRandomBytes(constants.AESKeySize)
		if err != nil {
			return fmt.Errorf("keygen: %w", err)
		}
		defer qcrypto.Zeroize(raw)
		fmt.Println(base64.StdEncoding.EncodeToString(raw))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
