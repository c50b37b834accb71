// codec.go implements the bit-exact wire encoding of a HybridEnvelope:
//
//	[ 4  hmac_len=32  ][ 32         hmac            ]
//	[ 4  kem_len=1568 ][ 1568       encapsulated_ct ]
//	[ 4  nonce_len=12 ][ 12         aead_nonce      ]
//	[ 4  tag_len=16   ][ 16         aead_tag        ]
//	[ 4  label_len    ][ label_len  context_label   ]
//	[ 4  ct_len       ][ ct_len     aead_ciphertext ]
//
// Every length prefix is a little-endian uint32. KeyID and CreatedAt are not
// part of this wire encoding — they travel alongside it in whatever store
// persists the envelope.
package envelope

import (
	"encoding/binary"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// Encode serializes env into its bit-exact wire representation.
func Encode(env *HybridEnvelope) ([]byte, error) {
	if err := validateLengths(env); err != nil {
		return nil, err
	}

	label := []byte(env.ContextLabel)
	total := 4 + len(env.IntegrityMAC) +
		4 + len(env.EncapsulatedCiphertext) +
		4 + len(env.AEADNonce) +
		4 + len(env.AEADTag) +
		4 + len(label) +
		4 + len(env.AEADCiphertext)

	buf := make([]byte, total)
	off := 0
	off = putField(buf, off, env.IntegrityMAC)
	off = putField(buf, off, env.EncapsulatedCiphertext)
	off = putField(buf, off, env.AEADNonce)
	off = putField(buf, off, env.AEADTag)
	off = putField(buf, off, label)
	putField(buf, off, env.AEADCiphertext)

	return buf, nil
}

// Decode parses the bit-exact wire representation produced by Encode.
// KeyID and CreatedAt are left zero-valued; the caller fills them in from
// the envelope's store record.
func Decode(data []byte) (*HybridEnvelope, error) {
	off := 0

	hmacTag, off, err := getField(data, off)
	if err != nil {
		return nil, err
	}
	kemCt, off, err := getField(data, off)
	if err != nil {
		return nil, err
	}
	nonce, off, err := getField(data, off)
	if err != nil {
		return nil, err
	}
	tag, off, err := getField(data, off)
	if err != nil {
		return nil, err
	}
	label, off, err := getField(data, off)
	if err != nil {
		return nil, err
	}
	aeadCt, off, err := getField(data, off)
	if err != nil {
		return nil, err
	}
	if off != len(data) {
		return nil, qerrors.Wrap(qerrors.InvalidInput, "envelope.Decode", qerrors.ErrEnvelopeMalformed)
	}

	env := &HybridEnvelope{
		IntegrityMAC:           hmacTag,
		EncapsulatedCiphertext: kemCt,
		AEADNonce:              nonce,
		AEADTag:                tag,
		ContextLabel:           string(label),
		AEADCiphertext:         aeadCt,
	}

	if err := validateLengths(env); err != nil {
		return nil, err
	}

	return env, nil
}

func putField(buf []byte, off int, field []byte) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(field)))
	off += constants.EnvelopeLengthPrefixSize
	copy(buf[off:], field)
	return off + len(field)
}

func getField(data []byte, off int) (field []byte, next int, err error) {
	if off+constants.EnvelopeLengthPrefixSize > len(data) {
		return nil, 0, qerrors.Wrap(qerrors.InvalidInput, "envelope.getField", qerrors.ErrEnvelopeMalformed)
	}
	length := binary.LittleEndian.Uint32(data[off:])
	off += constants.EnvelopeLengthPrefixSize

	end := off + int(length)
	if length > uint32(len(data)) || end < off || end > len(data) {
		return nil, 0, qerrors.Wrap(qerrors.InvalidInput, "envelope.getField", qerrors.ErrEnvelopeMalformed)
	}

	field = make([]byte, length)
	copy(field, data[off:end])
	return field, end, nil
}
