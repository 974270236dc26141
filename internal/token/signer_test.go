// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package token_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfo-launcher/launcher/internal/auth"
	"github.com/dfo-launcher/launcher/internal/token"
	"github.com/dfo-launcher/launcher/pkg/errutil"
)

func newDefaultSigner(t *testing.T) *token.Signer {
	t.Helper()
	key, err := token.DefaultKey()
	require.NoError(t, err)
	signer, err := token.NewSigner(key)
	require.NoError(t, err)
	return signer
}

func TestLegacyConstants(t *testing.T) {
	assert.Len(t, token.LegacyPrefix, 417)
	assert.True(t, strings.HasPrefix(token.LegacyPrefix, "1FFF"))
	assert.True(t, strings.HasSuffix(token.LegacyPrefix, "FF00"))
	assert.Len(t, token.LegacySuffix, 84)
	assert.True(t, strings.HasSuffix(token.LegacySuffix, "55914510010403030101"))
}

func TestSigner_Message(t *testing.T) {
	signer := newDefaultSigner(t)

	tests := []struct {
		name string
		uid  int32
		want string
	}{
		{name: "small uid is zero padded", uid: 42, want: "0000002A"},
		{name: "zero", uid: 0, want: "00000000"},
		{name: "max int32", uid: 2147483647, want: "7FFFFFFF"},
		{name: "negative uid uses uint32 bits", uid: -1, want: "FFFFFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := signer.Message(tt.uid)
			assert.Len(t, msg, 509)
			assert.Equal(t, tt.want, msg[len(token.LegacyPrefix):len(token.LegacyPrefix)+8])
			assert.True(t, strings.HasPrefix(msg, token.LegacyPrefix))
			assert.True(t, strings.HasSuffix(msg, token.LegacySuffix))
		})
	}
}

// Known answers for the embedded key, computed independently.
func TestSigner_Sign_KnownAnswers(t *testing.T) {
	signer := newDefaultSigner(t)

	tests := []struct {
		name string
		uid  int32
		want string
	}{
		{
			name: "uid 42",
			uid:  42,
			want: "NveZvtQGAD8X2uJo12Q1i3i6austuARO6Z2Nwy4qW4sKcgL2iKBXz7z/lpNoBwW9NC3s+qlyNhnHPYT2OO7AI3ewMnK8VA5m7qDShyw7j/7R2YpmwqGtql+/yTDNlhZpoqMKOSTpDH5WKSUUAHF6JuKlDBEXZNN7euV7QEXxt37fIkDdsN3vzLucwFfrr9Iua82u5v7Y4WcUQd0kQGxxd91xLMBj0Y6ElhYlNuqIn4fAOuXI2uE2KZu/Q+2m0Gsl9eglJvp5smVr/RRINjfm3YZAlUl9/Qaf6x9JR41tXJAqJMasCaWe19nZZ07Ac3PB48UQ5qbKJr2QxGQ7U3Z5jw==",
		},
		{
			name: "uid 1",
			uid:  1,
			want: "S9+vSR4ONGGd4+Npxe74iODraVBkE4lwe48Xd4+n3+kzocgjWOEBp70avle7zgYbc2emHLvuhWjxeF+PoNk+HUOgJ6Uf6setKQ6rbQkCP4cIQO/6/ltv91zxu8A0minOmmaNAnRrDq2HbvQKn1+M2pHjaYH4rwdCOKPlSx8PVFVhMtv37rsq5U7Y4g6euDdCX733fV/VDBlupO4pBVrY092v8PvFXNoRBcOfzd6ew/fzY0WniJKLSfit910j246PX0fcY8OoSz0HRCbzOSOzOs2AWF8RU9nqc2xphLi5FqNgzE734j9sR4mZPixMD+8iN8ziJAKVziUv0DIV8HSScA==",
		},
		{
			name: "signature with odd hex length keeps its leading zero nibble",
			uid:  32,
			want: "A6xL9yFCtPiD6qEUfXot51L5GxccW/ATt9Hsw1VIOMopKLQsfohD9TZdC9YQznIH1ECsVa5668jqXi1OMDQiCAWhXGdtvSu7sdzoMASQCt56S2auC65nshzRhCLlrS3HZ/2UNrB5FiCxRsxKlCIC1PBFAKWhS7p52sjot1AsyOF9Rbhe+xVrUJqipRWSEcqd4vZoobFoIqdyHz33nyTSn64P12EHRc5NRnjS0abCtAJD9c81dQbDyxCHgqKGPaLHVHabdnqReuA68RuHg3QReAQ01CtEOsPwUchRQbuuwwFWfRU4QdrPxw7Xz0iD8qjFwlKYl9uNZOd8CrtrBcoENQ==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := signer.Sign(tt.uid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSigner_Sign_Deterministic(t *testing.T) {
	signer := newDefaultSigner(t)

	first, err := signer.Sign(1000)
	require.NoError(t, err)
	second, err := signer.Sign(1000)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSigner_Sign_DistinctUIDs(t *testing.T) {
	signer := newDefaultSigner(t)

	seen := make(map[string]int32)
	for uid := int32(0); uid < 64; uid++ {
		tok, err := signer.Sign(uid)
		require.NoError(t, err)
		if prev, ok := seen[tok]; ok {
			t.Fatalf("uid %d and %d produced the same token", prev, uid)
		}
		seen[tok] = uid
	}
}

func TestSigner_Sign_DecodesToSignedMessage(t *testing.T) {
	signer := newDefaultSigner(t)
	key, err := token.DefaultKey()
	require.NoError(t, err)
	pub := key.PublicKey()

	tok, err := signer.Sign(42)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(tok)
	require.NoError(t, err)
	msg := new(big.Int).Exp(new(big.Int).SetBytes(raw), big.NewInt(int64(pub.E)), pub.N)

	text := strings.ToUpper(msg.Text(16))
	assert.Equal(t, signer.Message(42), text)
	assert.Equal(t, "0000002A", text[417:425])
}

func TestSigner_Recover(t *testing.T) {
	signer := newDefaultSigner(t)

	for _, uid := range []int32{0, 1, 32, 42, 100000, 2147483647} {
		tok, err := signer.Sign(uid)
		require.NoError(t, err)

		got, err := signer.Recover(tok)
		require.NoError(t, err)
		assert.Equal(t, uid, got)
	}
}

func TestSigner_Recover_Malformed(t *testing.T) {
	signer := newDefaultSigner(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "***"},
		{name: "wrong message shape", token: base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Recover(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrEncoding)
			errutil.AssertErrorCode(t, err, "TOKEN_MALFORMED")
		})
	}
}

func TestNewSigner_RejectsSmallModulus(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	key, err := token.ParseKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	require.NoError(t, err)

	_, err = token.NewSigner(key)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_KEY_INVALID")
}

func TestNewSigner_ZeroKey(t *testing.T) {
	_, err := token.NewSigner(token.Key{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_KEY_INVALID")
}

func TestParseKey(t *testing.T) {
	t.Run("rejects non PEM input", func(t *testing.T) {
		_, err := token.ParseKey([]byte("not a key"))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "TOKEN_KEY_INVALID")
	})

	t.Run("accepts PKCS#1", func(t *testing.T) {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

		key, err := token.ParseKey(data)
		require.NoError(t, err)
		assert.Equal(t, priv.N, key.PublicKey().N)
	})
}

func TestLoadKeyFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := token.LoadKeyFile(filepath.Join(t.TempDir(), "absent.pem"))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "TOKEN_KEY_READ_FAILED")
	})

	t.Run("reads key", func(t *testing.T) {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

		key, err := token.LoadKeyFile(path)
		require.NoError(t, err)
		signer, err := token.NewSigner(key)
		require.NoError(t, err)

		tok, err := signer.Sign(7)
		require.NoError(t, err)
		uid, err := signer.Recover(tok)
		require.NoError(t, err)
		assert.Equal(t, int32(7), uid)
	})
}
