package substrate_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	msg := []byte("hello agentic identity")
	sig, err := substrate.Sign(kp.Private, msg)
	require.NoError(t, err)

	assert.True(t, substrate.VerifyOK(kp.Public, msg, sig))
	assert.NoError(t, substrate.Verify(kp.Public, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	sig, err := substrate.Sign(kp.Private, []byte("original"))
	require.NoError(t, err)

	assert.False(t, substrate.VerifyOK(kp.Public, []byte("tampered"), sig))
	assert.Error(t, substrate.Verify(kp.Public, []byte("tampered"), sig))
}

func TestKeyPairFromSeedIsDeterministic(t *testing.T) {
	var seed [substrate.SeedSize]byte
	for i := range seed {
		seed[i] = byte(i)
	}

	kp1, err := substrate.KeyPairFromSeed(seed)
	require.NoError(t, err)
	kp2, err := substrate.KeyPairFromSeed(seed)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(kp1.Public, kp2.Public))
}

func TestZeroizeClearsKeyMaterial(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	kp.Zeroize()

	var zeroSeed [substrate.SeedSize]byte
	assert.Equal(t, zeroSeed, kp.Seed)
	for _, b := range kp.Private {
		assert.Equal(t, byte(0), b)
	}
}

func TestDeriveChildSecretDeterministicAndContextSeparated(t *testing.T) {
	root := []byte("root-secret-material-32-bytes!!")

	a1, err := substrate.DeriveChildSecret(root, "ctx-a")
	require.NoError(t, err)
	a2, err := substrate.DeriveChildSecret(root, "ctx-a")
	require.NoError(t, err)
	b, err := substrate.DeriveChildSecret(root, "ctx-b")
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
}

func TestDeriveSigningKeyProducesUsableKeyPair(t *testing.T) {
	root := []byte("another-root-secret-value-here!")

	kp, err := substrate.DeriveSigningKey(root, "agentic-identity/session/abc")
	require.NoError(t, err)

	sig, err := substrate.Sign(kp.Private, []byte("payload"))
	require.NoError(t, err)
	assert.True(t, substrate.VerifyOK(kp.Public, []byte("payload"), sig))
}

func TestArgon2idStretchIsDeterministicPerSalt(t *testing.T) {
	salt, err := substrate.RandomSalt(16)
	require.NoError(t, err)

	k1 := substrate.Argon2idStretch([]byte("correct horse"), salt)
	k2 := substrate.Argon2idStretch([]byte("correct horse"), salt)
	k3 := substrate.Argon2idStretch([]byte("wrong horse"), salt)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestAEADSealOpenRoundTrip(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcdef"))
	nonce, err := substrate.RandomNonce()
	require.NoError(t, err)

	plaintext := []byte("seal me")
	ciphertext, err := substrate.AEADSeal(key, nonce, plaintext)
	require.NoError(t, err)

	decrypted, err := substrate.AEADOpen(key, nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAEADOpenRejectsTamperedCiphertext(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcdef"))
	nonce, err := substrate.RandomNonce()
	require.NoError(t, err)

	ciphertext, err := substrate.AEADSeal(key, nonce, []byte("seal me"))
	require.NoError(t, err)
	ciphertext[0] ^= 0xFF

	_, err = substrate.AEADOpen(key, nonce, ciphertext)
	assert.Error(t, err)
}

func TestBase58RoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0xFF, 0x00}
	encoded := substrate.EncodeBase58(data)
	decoded, err := substrate.DecodeBase58(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestHexRoundTrip(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	encoded := substrate.EncodeHex(data)
	assert.Equal(t, "deadbeef", encoded)
	decoded, err := substrate.DecodeHex(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
