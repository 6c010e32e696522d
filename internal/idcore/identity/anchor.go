// Package identity implements identity anchors: long-lived Ed25519 key
// pairs whose public half is a self-certifying IdentityId, with a
// verifiable, append-only rotation history.
package identity

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/clock"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/errs"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

// IDPrefix is the printable-ASCII prefix for every IdentityId.
const IDPrefix = "aid_"

// IdentityId is the canonical, self-certifying identifier derived from a
// public key: "aid_" + Base58(first 16 bytes of SHA-256(public_key)).
type IdentityId string

// DeriveID computes the IdentityId for a public key. It is a pure
// function: equal inputs always yield equal IDs.
func DeriveID(pub ed25519.PublicKey) IdentityId {
	h := substrate.SHA256(pub)
	return IdentityId(IDPrefix + substrate.EncodeBase58(h[:16]))
}

// RotationReason classifies why a key was rotated. Kind is one of the
// closed variants; Tag carries the free-form label for ReasonOther.
type RotationReason struct {
	Kind RotationReasonKind `json:"kind"`
	Tag  string             `json:"tag,omitempty"`
}

// RotationReasonKind is the closed set of rotation reasons plus an open
// "other" escape hatch.
type RotationReasonKind string

const (
	ReasonScheduled   RotationReasonKind = "scheduled"
	ReasonCompromised RotationReasonKind = "compromised"
	ReasonPolicy      RotationReasonKind = "policy"
	ReasonManual      RotationReasonKind = "manual"
	ReasonOther       RotationReasonKind = "other"
)

// tag returns the stable lowercase string mixed into the rotation's
// authorization hash.
func (r RotationReason) tag() string {
	if r.Kind == ReasonOther {
		return string(ReasonOther) + ":" + r.Tag
	}
	return string(r.Kind)
}

// RotationRecord authorizes replacing previous_public_key with
// new_public_key at rotated_at, signed by the previous key's private
// half.
type RotationRecord struct {
	PreviousPublicKey      ed25519.PublicKey `json:"previous_public_key"`
	NewPublicKey           ed25519.PublicKey `json:"new_public_key"`
	RotatedAt              uint64            `json:"rotated_at"`
	Reason                 RotationReason    `json:"reason"`
	AuthorizationSignature []byte            `json:"authorization_signature"`
}

func rotationCanonical(previous, next ed25519.PublicKey, rotatedAt uint64, reasonTag string) []byte {
	return substrate.NewCanon().
		RawBytes(previous).
		RawBytes(next).
		Uint64(rotatedAt).
		String(reasonTag).
		Bytes()
}

// PublicDocument is everything about an anchor safe to publish: no secret
// material, ever.
type PublicDocument struct {
	ID               IdentityId        `json:"id"`
	GenesisPublicKey ed25519.PublicKey `json:"genesis_public_key"`
	CurrentPublicKey ed25519.PublicKey `json:"current_public_key"`
	Name             *string           `json:"name,omitempty"`
	CreatedAt        uint64            `json:"created_at"`
	RotationHistory  []RotationRecord  `json:"rotation_history"`
}

// Anchor owns a live Ed25519 key pair and its rotation lineage. Its id is
// permanently derived from the genesis public key: rotation never
// changes Anchor.ID().
type Anchor struct {
	id               IdentityId
	genesisPublicKey ed25519.PublicKey
	current          *substrate.KeyPair
	name             *string
	createdAt        uint64
	rotationHistory  []RotationRecord
}

// Create draws a fresh Ed25519 seed from rng (pass nil for
// crypto/rand.Reader), derives the anchor's id from the genesis public
// key, and starts an empty rotation history.
func Create(name *string, clk clock.Clock, rng io.Reader) (*Anchor, error) {
	kp, err := substrate.GenerateKeyPair(rng)
	if err != nil {
		return nil, err
	}
	return &Anchor{
		id:               DeriveID(kp.Public),
		genesisPublicKey: kp.Public,
		current:          kp,
		name:             name,
		createdAt:        clk.NowMicros(),
		rotationHistory:  nil,
	}, nil
}

// ID returns the anchor's permanent identifier.
func (a *Anchor) ID() IdentityId { return a.id }

// CurrentPublicKey returns the public half of the anchor's live key pair.
func (a *Anchor) CurrentPublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), a.current.Public...)
}

// CurrentSigningKey exposes the live private key for signing receipts and
// grants. Callers must not retain it beyond the call that needs it.
func (a *Anchor) CurrentSigningKey() ed25519.PrivateKey { return a.current.Private }

// RotationHistory returns a copy of the anchor's append-only rotation log.
func (a *Anchor) RotationHistory() []RotationRecord {
	out := make([]RotationRecord, len(a.rotationHistory))
	copy(out, a.rotationHistory)
	return out
}

// Rotate generates a fresh key pair, signs a RotationRecord with the
// current (soon-to-be-previous) private key, appends it to the history,
// and swaps in the new key pair. The anchor's ID is unchanged.
func (a *Anchor) Rotate(reason RotationReason, clk clock.Clock, rng io.Reader) (RotationRecord, error) {
	fresh, err := substrate.GenerateKeyPair(rng)
	if err != nil {
		return RotationRecord{}, err
	}
	rotatedAt := clk.NowMicros()
	canonical := rotationCanonical(a.current.Public, fresh.Public, rotatedAt, reason.tag())
	sig, err := substrate.Sign(a.current.Private, canonical)
	if err != nil {
		return RotationRecord{}, err
	}
	record := RotationRecord{
		PreviousPublicKey:      a.current.Public,
		NewPublicKey:           fresh.Public,
		RotatedAt:              rotatedAt,
		Reason:                 reason,
		AuthorizationSignature: sig,
	}
	a.rotationHistory = append(a.rotationHistory, record)
	a.current.Zeroize()
	a.current = fresh
	return record, nil
}

// PublicDocument returns the publishable view of the anchor, with no
// secret material.
func (a *Anchor) PublicDocument() PublicDocument {
	return PublicDocument{
		ID:               a.id,
		GenesisPublicKey: a.genesisPublicKey,
		CurrentPublicKey: a.current.Public,
		Name:             a.name,
		CreatedAt:        a.createdAt,
		RotationHistory:  a.RotationHistory(),
	}
}

// Close zeroizes the anchor's live key material. The Anchor must not be
// used afterward.
func (a *Anchor) Close() {
	if a == nil || a.current == nil {
		return
	}
	a.current.Zeroize()
}

// VerifyRotationHistory checks an entire rotation history against only
// public information: each record's previous_public_key must chain from
// the prior record's new_public_key (or genesisPublicKey for the first),
// each authorization signature must verify under previous_public_key, and
// timestamps must be non-decreasing.
func VerifyRotationHistory(genesisPublicKey ed25519.PublicKey, history []RotationRecord) error {
	expectedPrev := genesisPublicKey
	var lastTs uint64
	for i, rec := range history {
		if !bytes.Equal(rec.PreviousPublicKey, expectedPrev) {
			return errs.New(errs.InvalidChain, "rotation record previous_public_key does not chain")
		}
		canonical := rotationCanonical(rec.PreviousPublicKey, rec.NewPublicKey, rec.RotatedAt, rec.Reason.tag())
		if !substrate.VerifyOK(rec.PreviousPublicKey, canonical, rec.AuthorizationSignature) {
			return errs.New(errs.SignatureInvalid, "rotation authorization signature invalid")
		}
		if i > 0 && rec.RotatedAt < lastTs {
			return errs.New(errs.InvalidChain, "rotation timestamps are not non-decreasing")
		}
		lastTs = rec.RotatedAt
		expectedPrev = rec.NewPublicKey
	}
	return nil
}
