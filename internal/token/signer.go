// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

// Package token issues the signed launch token handed to the game client.
//
// The token is raw textbook RSA over a fixed-shape hex message:
//
//	Prefix | uid as 8 upper-case hex digits | Suffix
//
// The message is signed with the private exponent, rendered as hex, decoded to
// bytes and base64 encoded. The game client parses exactly this shape, so the
// constants, the padding width and the encoding order must not change.
package token

import (
	"crypto/rsa"
	"crypto/x509"
	_ "embed"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/dfo-launcher/launcher/internal/auth"
)

//go:embed keys/launcher_dev.pem
var defaultKeyPEM []byte

// Legacy message constants expected by the game client.
var (
	LegacyPrefix = "1" + strings.Repeat("F", 414) + "00"
	LegacySuffix = "010101010101010101010101010101010101010101010101010101010101010155914510010403030101"
)

// uidHexWidth is the zero-padded width of the uid segment.
const uidHexWidth = 8

// Key is the immutable signing material: the RSA private key plus the
// message constants that frame the uid.
type Key struct {
	private *rsa.PrivateKey
	prefix  string
	suffix  string
}

// ParseKey decodes a PEM encoded RSA private key (PKCS#8, or PKCS#1 as a
// fallback) and pairs it with the legacy message constants.
func ParseKey(pemBytes []byte) (Key, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return Key{}, oops.Code("TOKEN_KEY_INVALID").Errorf("no PEM block found in key material")
	}

	var priv *rsa.PrivateKey
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return Key{}, oops.Code("TOKEN_KEY_INVALID").Errorf("key is %T, want RSA", parsed)
		}
		priv = rsaKey
	} else {
		rsaKey, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return Key{}, oops.Code("TOKEN_KEY_INVALID").With("block_type", block.Type).Wrap(err)
		}
		priv = rsaKey
	}

	return Key{private: priv, prefix: LegacyPrefix, suffix: LegacySuffix}, nil
}

// DefaultKey returns the key material embedded in the binary.
func DefaultKey() (Key, error) {
	return ParseKey(defaultKeyPEM)
}

// LoadKeyFile reads key material from path.
func LoadKeyFile(path string) (Key, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied key path
	if err != nil {
		return Key{}, oops.Code("TOKEN_KEY_READ_FAILED").With("path", path).Wrap(err)
	}
	return ParseKey(data)
}

// PublicKey returns the public half of the signing key.
func (k Key) PublicKey() *rsa.PublicKey {
	if k.private == nil {
		return nil
	}
	return &k.private.PublicKey
}

// Signer produces launch tokens. It is safe for concurrent use.
type Signer struct {
	key Key
}

// NewSigner creates a Signer. The modulus must be wider than the message,
// otherwise the signature would not be invertible.
func NewSigner(key Key) (*Signer, error) {
	if key.private == nil {
		return nil, oops.Code("TOKEN_KEY_INVALID").Errorf("signing key is required")
	}
	widest, ok := new(big.Int).SetString(key.prefix+"FFFFFFFF"+key.suffix, 16)
	if !ok {
		return nil, oops.Code("TOKEN_KEY_INVALID").Errorf("message constants are not hex")
	}
	if widest.Cmp(key.private.N) >= 0 {
		return nil, oops.Code("TOKEN_KEY_INVALID").
			With("modulus_bits", key.private.N.BitLen()).
			With("message_bits", widest.BitLen()).
			Errorf("modulus is too small for the token message")
	}
	return &Signer{key: key}, nil
}

// Message returns the hex message signed for uid.
func (s *Signer) Message(uid int32) string {
	return s.key.prefix + fmt.Sprintf("%0*X", uidHexWidth, uint32(uid)) + s.key.suffix //nolint:gosec // uid is rendered as its two's complement bits
}

// Sign returns the launch token for uid.
func (s *Signer) Sign(uid int32) (string, error) {
	msg, ok := new(big.Int).SetString(s.Message(uid), 16)
	if !ok {
		return "", oops.Code("TOKEN_ENCODING_FAILED").
			With("uid", uid).
			Wrapf(auth.ErrEncoding, "message is not valid hex")
	}

	sig := new(big.Int).Exp(msg, s.key.private.D, s.key.private.N)

	digits := sig.Text(16)
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return "", oops.Code("TOKEN_ENCODING_FAILED").
			With("uid", uid).
			Wrap(fmt.Errorf("%w: %w", auth.ErrEncoding, err))
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Recover reverses Sign with the public exponent and returns the uid the
// token was issued for. It fails if the token does not carry the expected
// message shape.
func (s *Signer) Recover(token string) (int32, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, oops.Code("TOKEN_MALFORMED").Wrap(fmt.Errorf("%w: %w", auth.ErrEncoding, err))
	}

	pub := s.key.PublicKey()
	sig := new(big.Int).SetBytes(raw)
	if sig.Cmp(pub.N) >= 0 {
		return 0, oops.Code("TOKEN_MALFORMED").Wrapf(auth.ErrEncoding, "signature exceeds modulus")
	}
	msg := new(big.Int).Exp(sig, big.NewInt(int64(pub.E)), pub.N)

	text := strings.ToUpper(msg.Text(16))
	if len(text) != len(s.key.prefix)+uidHexWidth+len(s.key.suffix) ||
		!strings.HasPrefix(text, s.key.prefix) ||
		!strings.HasSuffix(text, s.key.suffix) {
		return 0, oops.Code("TOKEN_MALFORMED").Wrapf(auth.ErrEncoding, "token message has unexpected shape")
	}

	uidHex := text[len(s.key.prefix) : len(s.key.prefix)+uidHexWidth]
	uid, err := strconv.ParseUint(uidHex, 16, 32)
	if err != nil {
		return 0, oops.Code("TOKEN_MALFORMED").Wrap(fmt.Errorf("%w: %w", auth.ErrEncoding, err))
	}
	return int32(uid), nil //nolint:gosec // inverse of the uint32 rendering in Message
}
