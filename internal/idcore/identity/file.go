package identity

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/errs"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

// FileVersion is the only .aid envelope version this implementation
// understands. A file with any other version is InvalidFileFormat.
const FileVersion = 1

type kdfEnvelope struct {
	Algo      string `json:"algo"`
	SaltB64   []byte `json:"salt_b64"`
	MCostKiB  uint32 `json:"m_cost_kib"`
	TCost     uint32 `json:"t_cost"`
	PCost     uint8  `json:"p_cost"`
}

type aeadEnvelope struct {
	Algo          string `json:"algo"`
	NonceB64      []byte `json:"nonce_b64"`
	CiphertextB64 []byte `json:"ciphertext_b64"`
}

// fileEnvelope is the on-disk .aid JSON shape. encoding/json marshals
// []byte fields as standard base64 automatically, so the "_b64" struct
// fields need no custom MarshalJSON.
type fileEnvelope struct {
	Version        int            `json:"version"`
	KDF            kdfEnvelope    `json:"kdf"`
	AEAD           aeadEnvelope   `json:"aead"`
	PublicDocument PublicDocument `json:"public_document"`
}

// Save seals the anchor's live seed under passphrase with Argon2id +
// ChaCha20-Poly1305 and writes the .aid envelope atomically: write to a
// temp sibling, fsync, rename over the destination.
func (a *Anchor) Save(path string, passphrase string) error {
	salt, err := substrate.RandomSalt(16)
	if err != nil {
		return err
	}
	key := substrate.Argon2idStretch([]byte(passphrase), salt)
	nonce, err := substrate.RandomNonce()
	if err != nil {
		return err
	}
	ciphertext, err := substrate.AEADSeal(key, nonce, a.current.Seed[:])
	if err != nil {
		return err
	}

	env := fileEnvelope{
		Version: FileVersion,
		KDF: kdfEnvelope{
			Algo:     "argon2id",
			SaltB64:  salt,
			MCostKiB: substrate.Argon2idParams.MemoryKiB,
			TCost:    substrate.Argon2idParams.Iterations,
			PCost:    substrate.Argon2idParams.Parallelism,
		},
		AEAD: aeadEnvelope{
			Algo:          "chacha20-poly1305",
			NonceB64:      nonce[:],
			CiphertextB64: ciphertext,
		},
		PublicDocument: a.PublicDocument(),
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errs.Wrap(errs.SerializationError, "marshal .aid envelope", err)
	}
	return atomicWriteFile(path, data, 0o600)
}

// Load reads an .aid envelope, unseals its private seed with passphrase,
// and reconstructs a live Anchor. A wrong passphrase or a tampered salt,
// nonce or ciphertext surfaces as InvalidPassphrase; a nonce of the wrong
// length is InvalidFileFormat.
func Load(path string, passphrase string) (*Anchor, error) {
	env, err := readEnvelope(path)
	if err != nil {
		return nil, err
	}

	if len(env.AEAD.NonceB64) != chacha20poly1305.NonceSize {
		return nil, errs.New(errs.InvalidFileFormat, "aead nonce has wrong length")
	}
	key := substrate.Argon2idStretch([]byte(passphrase), env.KDF.SaltB64)
	var nonce [chacha20poly1305.NonceSize]byte
	copy(nonce[:], env.AEAD.NonceB64)

	plaintext, err := substrate.AEADOpen(key, nonce, env.AEAD.CiphertextB64)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidPassphrase, "unseal .aid private key", err)
	}
	if len(plaintext) != substrate.SeedSize {
		return nil, errs.New(errs.InvalidFileFormat, "unsealed seed has wrong length")
	}
	var seed [substrate.SeedSize]byte
	copy(seed[:], plaintext)

	kp, err := substrate.KeyPairFromSeed(seed)
	if err != nil {
		return nil, err
	}
	doc := env.PublicDocument
	if !ed25519Equal(kp.Public, doc.CurrentPublicKey) {
		return nil, errs.New(errs.InvalidFileFormat, "unsealed key does not match public document")
	}
	if DeriveID(doc.GenesisPublicKey) != doc.ID {
		return nil, errs.New(errs.InvalidFileFormat, "public document id does not match genesis key")
	}

	return &Anchor{
		id:               doc.ID,
		genesisPublicKey: doc.GenesisPublicKey,
		current:          kp,
		name:             doc.Name,
		createdAt:        doc.CreatedAt,
		rotationHistory:  doc.RotationHistory,
	}, nil
}

// ReadPublicDocument parses an .aid envelope and returns only its public
// document, without requiring or touching the sealed private key.
func ReadPublicDocument(path string) (*PublicDocument, error) {
	env, err := readEnvelope(path)
	if err != nil {
		return nil, err
	}
	doc := env.PublicDocument
	return &doc, nil
}

func readEnvelope(path string) (*fileEnvelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Io, "read .aid file", err)
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errs.Wrap(errs.InvalidFileFormat, "parse .aid envelope", err)
	}
	if env.Version != FileVersion {
		return nil, errs.New(errs.InvalidFileFormat, "unsupported .aid version")
	}
	return &env, nil
}

// atomicWriteFile writes data to a temp file beside path, fsyncs it, then
// renames it over path so a crash mid-write never leaves a partial file
// in path's place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".aid-tmp-*")
	if err != nil {
		return errs.Wrap(errs.Io, "create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Wrap(errs.Io, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.Wrap(errs.Io, "fsync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.Io, "close temp file", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return errs.Wrap(errs.Io, "chmod temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.Wrap(errs.Io, "rename temp file over destination", err)
	}
	return nil
}

func ed25519Equal(a, b ed25519.PublicKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
