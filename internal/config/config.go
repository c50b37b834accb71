// Package config loads kembridged's process configuration through viper,
// bound to the root command's persistent flags, the way
// kgiusti-go-fdo-server's cmd/root.go binds --db/--db-pass before any
// subcommand runs.
package config

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kembridge/kembridge-core/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ChainConfig is the per-chain RPC endpoint and identifier a
// chainadapter.ChainAdapter needs to dial out.
type ChainConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	ChainID string `mapstructure:"chain_id"`
}

// Config is the fully resolved process configuration for kembridged.
// Every field here is either required (Validate fails closed if it's
// empty) or carries a safe, non-secret default.
type Config struct {
	// DatabaseURL is the Postgres DSN backing pkg/keymanager, pkg/swap,
	// and pkg/auth's GormStore implementations.
	DatabaseURL string `mapstructure:"database_url"`

	// NonceStoreURL is the DSN for C5's nonce store. Defaults to
	// DatabaseURL (same Postgres instance, separate table) when unset.
	NonceStoreURL string `mapstructure:"nonce_store_url"`

	// JWTSecret signs C5 session tokens (HS256). Never given a
	// hard-coded default.
	JWTSecret string `mapstructure:"jwt_secret"`

	// MasterKeyBase64 is the process master key wrapping C3's private
	// keys at rest, base64-encoded, exactly 32 raw bytes. Never given a
	// hard-coded default.
	MasterKeyBase64 string `mapstructure:"master_key"`

	// Chains maps a constants.ChainType string ("ethereum", "near") to
	// its adapter configuration. At least one chain must be configured.
	Chains map[string]ChainConfig `mapstructure:"chains"`

	// ListenAddress is where `kembridged serve` binds its health/metrics
	// endpoints (the pkg/metrics.NewServer handler).
	ListenAddress string `mapstructure:"listen_address"`

	// LogLevel controls pkg/metrics.Logger's minimum level ("debug",
	// "info", "warn", "error").
	LogLevel string `mapstructure:"log_level"`

	// Debug enables verbose/dev-mode logging, mirroring the teacher's
	// --debug flag.
	Debug bool `mapstructure:"debug"`
}

// BindFlags registers the persistent flags Load reads back through
// viper, matching the teacher's root.go init() pattern.
func BindFlags(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML/TOML/JSON config file")
	flags.String("database-url", "", "Postgres DSN for keymanager/swap/auth storage")
	flags.String("nonce-store-url", "", "Postgres DSN for the nonce store (defaults to --database-url)")
	flags.String("jwt-secret", "", "HS256 signing secret for session tokens")
	flags.String("master-key", "", "Base64-encoded 32-byte process master key")
	flags.String("listen-address", ":8080", "Address the metrics/health server binds")
	flags.String("log-level", "info", "Minimum log level (debug, info, warn, error)")
	flags.Bool("debug", false, "Enable verbose logging")

	for _, name := range []string{"config", "database-url", "nonce-store-url", "jwt-secret", "master-key", "listen-address", "log-level", "debug"} {
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file (if --config was set), environment
// variables under the KEMBRIDGE_ prefix, and the bound flags, then
// unmarshals the result into a Config and validates it.
func Load() (*Config, error) {
	viper.SetEnvPrefix("kembridge")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.NonceStoreURL == "" {
		cfg.NonceStoreURL = cfg.DatabaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails closed: every secret and every chain entry must be
// present and well-formed before kembridged is allowed to serve.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database_url is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: jwt_secret is required")
	}
	if c.MasterKeyBase64 == "" {
		return fmt.Errorf("config: master_key is required")
	}
	raw, err := base64.StdEncoding.DecodeString(c.MasterKeyBase64)
	if err != nil {
		return fmt.Errorf("config: master_key is not valid base64: %w", err)
	}
	if len(raw) != constants.AESKeySize {
		return fmt.Errorf("config: master_key must decode to %d bytes, got %d", constants.AESKeySize, len(raw))
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("config: at least one entry under chains is required")
	}
	for name, chain := range c.Chains {
		if chain.RPCURL == "" {
			return fmt.Errorf("config: chains.%s.rpc_url is required", name)
		}
		if chain.ChainID == "" {
			return fmt.Errorf("config: chains.%s.chain_id is required", name)
		}
	}
	return nil
}

// MasterKey decodes MasterKeyBase64. Validate must have already
// succeeded; callers that skip Validate get whatever base64 returns.
func (c *Config) MasterKey() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.MasterKeyBase64)
}
