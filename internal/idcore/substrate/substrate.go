// Package substrate is the shared cryptographic base every other idcore
// package builds on: Ed25519 keys, SHA-256 hashing, HKDF-SHA256
// derivation, Argon2id passphrase stretching, and ChaCha20-Poly1305 AEAD.
// Nothing here knows about identities, receipts, or grants — it only
// knows bytes.
package substrate

import (
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/errs"
)

// SeedSize is the length of an Ed25519 seed in bytes.
const SeedSize = ed25519.SeedSize // 32

// Fixed HKDF context templates. Callers format these with the
// session/capability/device identifier before calling DeriveSigningKey.
const (
	ContextSession    = "agentic-identity/session/%s"
	ContextCapability = "agentic-identity/capability/%s"
	ContextDevice     = "agentic-identity/device/%s"
)

// Argon2idParams are the default cost parameters: 64 MiB
// memory, 3 iterations, 4-way parallelism, 32-byte output. It is a
// package variable, so a caller may override the cost fields before
// sealing or unsealing.
var Argon2idParams = struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	KeyLen      uint32
}{
	MemoryKiB:   64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	KeyLen:      32,
}

// KeyPair holds an Ed25519 signing key and its derived verifying key.
// The seed is the only secret; Private is kept only as long as the
// KeyPair is referenced and must be wiped with Zeroize when done.
type KeyPair struct {
	Seed    [SeedSize]byte
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// GenerateKeyPair draws a fresh 32-byte seed from a CSPRNG and derives the
// Ed25519 key pair from it. rng is normally crypto/rand.Reader; callers in
// tests may supply a deterministic reader.
func GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	if rng == nil {
		rng = cryptorand.Reader
	}
	var seed [SeedSize]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return nil, errs.Wrap(errs.InvalidKey, "read random seed", err)
	}
	return KeyPairFromSeed(seed)
}

// KeyPairFromSeed reconstructs a KeyPair deterministically from a 32-byte
// Ed25519 seed, e.g. after unsealing an .aid file or deriving via HKDF.
func KeyPairFromSeed(seed [SeedSize]byte) (*KeyPair, error) {
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errs.New(errs.InvalidKey, "derive public key from seed")
	}
	kp := &KeyPair{Private: priv, Public: pub}
	copy(kp.Seed[:], seed[:])
	return kp, nil
}

// Zeroize scrubs the seed and private key bytes in place. Call it when a
// KeyPair is no longer needed; it does not release the struct itself.
func (k *KeyPair) Zeroize() {
	if k == nil {
		return
	}
	for i := range k.Seed {
		k.Seed[i] = 0
	}
	for i := range k.Private {
		k.Private[i] = 0
	}
}

// Sign produces an Ed25519 signature over msg using the key pair's
// private key.
func Sign(priv ed25519.PrivateKey, msg []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errs.New(errs.InvalidKey, "signing key has wrong length")
	}
	return ed25519.Sign(priv, msg), nil
}

// Verify checks an Ed25519 signature over msg against pub. It returns a
// SignatureInvalid error rather than a bare bool so callers that want an
// error-returning API get one; callers that want a plain bool should use
// VerifyOK.
func Verify(pub ed25519.PublicKey, msg, sig []byte) error {
	if !VerifyOK(pub, msg, sig) {
		return errs.New(errs.SignatureInvalid, "ed25519 verification failed")
	}
	return nil
}

// VerifyOK is the boolean form of Verify, for call sites building up a
// structured verification result rather than propagating an error.
func VerifyOK(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// SHA256 returns the SHA-256 digest of b.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// DeriveChildSecret runs HKDF-SHA256 extract-then-expand over root with
// the given context string as the info parameter, producing a 32-byte
// child secret. Same (root, context) always yields the same output;
// distinct contexts over the same root yield independent outputs, and
// compromise of a child secret does not reveal root.
func DeriveChildSecret(root []byte, context string) ([32]byte, error) {
	var out [32]byte
	reader := hkdf.New(sha256.New, root, nil, []byte(context))
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return out, errs.Wrap(errs.DerivationFailed, "hkdf expand", err)
	}
	return out, nil
}

// DeriveSigningKey derives a child secret from root under context via
// DeriveChildSecret and builds an Ed25519 key pair from it in one step.
func DeriveSigningKey(root []byte, context string) (*KeyPair, error) {
	seed, err := DeriveChildSecret(root, context)
	if err != nil {
		return nil, err
	}
	return KeyPairFromSeed(seed)
}

// Argon2idStretch runs Argon2id over passphrase with salt using the
// current Argon2idParams, producing a 32-byte key suitable for
// ChaCha20-Poly1305.
func Argon2idStretch(passphrase []byte, salt []byte) [32]byte {
	out := argon2.IDKey(passphrase, salt, Argon2idParams.Iterations, Argon2idParams.MemoryKiB, Argon2idParams.Parallelism, Argon2idParams.KeyLen)
	var key [32]byte
	copy(key[:], out)
	return key
}

// AEADSeal encrypts plaintext with ChaCha20-Poly1305 under key and nonce,
// returning ciphertext with the authentication tag appended. nonce must be
// exactly 12 bytes; pass RandomNonce() output or a caller-supplied value.
func AEADSeal(key [32]byte, nonce [chacha20poly1305.NonceSize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, errs.Wrap(errs.EncryptionFailed, "construct aead", err)
	}
	return aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// AEADOpen decrypts and authenticates ciphertext produced by AEADSeal.
// Any tampering with ciphertext, nonce, or key surfaces as
// DecryptionFailed.
func AEADOpen(key [32]byte, nonce [chacha20poly1305.NonceSize]byte, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, errs.Wrap(errs.EncryptionFailed, "construct aead", err)
	}
	pt, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, errs.Wrap(errs.DecryptionFailed, "aead authentication failed", err)
	}
	return pt, nil
}

// RandomNonce draws a fresh 12-byte ChaCha20-Poly1305 nonce from a CSPRNG.
func RandomNonce() ([chacha20poly1305.NonceSize]byte, error) {
	var n [chacha20poly1305.NonceSize]byte
	if _, err := io.ReadFull(cryptorand.Reader, n[:]); err != nil {
		return n, errs.Wrap(errs.EncryptionFailed, "read random nonce", err)
	}
	return n, nil
}

// RandomSalt draws n random bytes for use as an Argon2id salt.
func RandomSalt(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(cryptorand.Reader, b); err != nil {
		return nil, errs.Wrap(errs.EncryptionFailed, "read random salt", err)
	}
	return b, nil
}

// EncodeBase58 encodes b using the Base58 alphabet (no checksum, no
// version byte — just raw Base58 over the input bytes).
func EncodeBase58(b []byte) string { return base58.Encode(b) }

// DecodeBase58 is the inverse of EncodeBase58.
func DecodeBase58(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, errs.Wrap(errs.SerializationError, "base58 decode", err)
	}
	return b, nil
}

// EncodeBase64 encodes b with standard padded Base64, the wire encoding
// used for signatures and public keys.
func EncodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// DecodeBase64 is the inverse of EncodeBase64.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.SerializationError, "base64 decode", err)
	}
	return b, nil
}

// EncodeHex lowercases-hex encodes b, the wire encoding for content
// hashes.
func EncodeHex(b []byte) string { return hex.EncodeToString(b) }

// DecodeHex is the inverse of EncodeHex.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.SerializationError, "hex decode", err)
	}
	return b, nil
}
