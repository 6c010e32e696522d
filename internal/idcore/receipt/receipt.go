// Package receipt implements action receipts: signed, content-addressed,
// optionally chained records of agent actions, with multi-party witnesses.
// The digest/sign/witness/Merkle-anchor shape here is generalized from a
// single ephemeral streaming key to any identity.Anchor signing key, and
// from a fixed field layout to the full ActionReceipt model.
package receipt

import (
	"crypto/ed25519"
	"sort"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/clock"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/errs"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

// IDPrefix is the printable-ASCII prefix for every ReceiptId.
const IDPrefix = "arec_"

// ReceiptId is the content-derived identifier of a receipt: "arec_" +
// Base58(first 16 bytes of receipt_hash).
type ReceiptId string

// DeriveReceiptID computes a ReceiptId from a receipt_hash's raw bytes.
func DeriveReceiptID(receiptHash [32]byte) ReceiptId {
	return ReceiptId(IDPrefix + substrate.EncodeBase58(receiptHash[:16]))
}

// ActionType is the closed set of action variants plus an open Custom
// escape hatch. Each variant maps to a stable lowercase tag that is
// part of the content hash, so changing Tag() for an existing Kind would
// break every previously issued receipt.
type ActionType struct {
	Kind ActionKind `json:"kind"`
	Tag  string     `json:"tag,omitempty"`
}

// ActionKind enumerates the closed ActionType variants.
type ActionKind string

const (
	ActionDecision          ActionKind = "decision"
	ActionObservation       ActionKind = "observation"
	ActionMutation          ActionKind = "mutation"
	ActionDelegation        ActionKind = "delegation"
	ActionRevocation        ActionKind = "revocation"
	ActionIdentityOperation ActionKind = "identity_operation"
	ActionCustom            ActionKind = "custom"
)

// Tag returns the stable string mixed into the receipt's content hash.
func (t ActionType) Tag() string {
	if t.Kind == ActionCustom {
		return string(ActionCustom) + ":" + t.Tag
	}
	return string(t.Kind)
}

// ActionContent is the free-form body of what an identity did.
type ActionContent struct {
	Description string   `json:"description"`
	Data        any      `json:"data,omitempty"`
	References  []string `json:"references"`
}

// canonical writes the action's fields into c in the field order used for
// hashing. Data is serialized via its canonical JSON form so structured
// values participate deterministically in the hash without requiring a
// bespoke canonicalizer for arbitrary Go values.
func (a ActionContent) canonical(c *substrate.Canon) error {
	c.String(a.Description)
	dataBytes, err := canonicalJSON(a.Data)
	if err != nil {
		return errs.Wrap(errs.SerializationError, "canonicalize action data", err)
	}
	c.RawBytes(dataBytes)
	c.StringList(a.References)
	return nil
}

// WitnessSignature is a second identity's attestation over a receipt's
// published receipt_hash.
type WitnessSignature struct {
	Witness     string `json:"witness"`
	WitnessKey  []byte `json:"witness_key"`
	WitnessedAt uint64 `json:"witnessed_at"`
	Signature   []byte `json:"signature"`
}

// NewWitnessSignature signs receiptHash with the witness's signing key.
// The witness identifier is opaque to this package (callers pass
// identity.IdentityId formatted as a string).
func NewWitnessSignature(witness string, signingKey ed25519.PrivateKey, witnessKey ed25519.PublicKey, receiptHash [32]byte, clk clock.Clock) (WitnessSignature, error) {
	sig, err := substrate.Sign(signingKey, receiptHash[:])
	if err != nil {
		return WitnessSignature{}, err
	}
	return WitnessSignature{
		Witness:     witness,
		WitnessKey:  witnessKey,
		WitnessedAt: clk.NowMicros(),
		Signature:   sig,
	}, nil
}

// ActionReceipt is a signed, hashed, optionally chained record that an
// identity performed an action at a given time.
type ActionReceipt struct {
	ID              ReceiptId          `json:"id"`
	Actor           string             `json:"actor"`
	ActorKey        []byte             `json:"actor_key"`
	ActionType      ActionType         `json:"action_type"`
	Action          ActionContent      `json:"action"`
	Timestamp       uint64             `json:"timestamp"`
	ContextHash     *string            `json:"context_hash,omitempty"`
	PreviousReceipt *ReceiptId         `json:"previous_receipt,omitempty"`
	ReceiptHash     string             `json:"receipt_hash"`
	Signature       []byte             `json:"signature"`
	Witnesses       []WitnessSignature `json:"witnesses"`
}

// BuildRequest carries everything a caller supplies before a receipt is
// built and signed.
type BuildRequest struct {
	Actor           string
	ActorKey        ed25519.PublicKey
	ActionType      ActionType
	Action          ActionContent
	ContextHash     *string
	PreviousReceipt *ReceiptId
}

func receiptCanonical(actor string, actorKey ed25519.PublicKey, actionTypeTag string, action ActionContent, timestamp uint64, contextHash *string, previousReceipt *ReceiptId) ([]byte, error) {
	c := substrate.NewCanon().
		String(actor).
		RawBytes(actorKey).
		String(actionTypeTag)
	if err := action.canonical(c); err != nil {
		return nil, err
	}
	c.Uint64(timestamp)
	c.OptionalString(contextHash)
	var prevStr *string
	if previousReceipt != nil {
		s := string(*previousReceipt)
		prevStr = &s
	}
	c.OptionalString(prevStr)
	return c.Bytes(), nil
}

// BuildAndSign captures the timestamp from clk, canonicalizes the
// receipt's hashed fields, computes receipt_hash and id, and signs
// receipt_hash with signingKey. The returned receipt has no witnesses.
func BuildAndSign(req BuildRequest, signingKey ed25519.PrivateKey, clk clock.Clock) (ActionReceipt, error) {
	timestamp := clk.NowMicros()
	canonical, err := receiptCanonical(req.Actor, req.ActorKey, req.ActionType.Tag(), req.Action, timestamp, req.ContextHash, req.PreviousReceipt)
	if err != nil {
		return ActionReceipt{}, err
	}
	hashBytes := substrate.SHA256(canonical)
	sig, err := substrate.Sign(signingKey, hashBytes[:])
	if err != nil {
		return ActionReceipt{}, err
	}
	return ActionReceipt{
		ID:              DeriveReceiptID(hashBytes),
		Actor:           req.Actor,
		ActorKey:        req.ActorKey,
		ActionType:      req.ActionType,
		Action:          req.Action,
		Timestamp:       timestamp,
		ContextHash:     req.ContextHash,
		PreviousReceipt: req.PreviousReceipt,
		ReceiptHash:     substrate.EncodeHex(hashBytes[:]),
		Signature:       sig,
		Witnesses:       nil,
	}, nil
}

// AddWitness appends a witness signature to an already-signed receipt.
// Receipts are immutable after signing except for this append;
// witness order is insertion order and carries no meaning.
func (r *ActionReceipt) AddWitness(w WitnessSignature) {
	r.Witnesses = append(r.Witnesses, w)
}

// VerificationResult is the structured outcome of verifying a single
// receipt.
type VerificationResult struct {
	SignatureValid bool
	WitnessesValid []bool
	IsValid        bool
	VerifiedAt     uint64
}

// VerifyReceipt recomputes receipt_hash and id from r's hashed fields,
// checks the primary signature, and checks every witness signature
// against r's published receipt_hash.
func VerifyReceipt(r ActionReceipt, clk clock.Clock) VerificationResult {
	result := VerificationResult{
		WitnessesValid: make([]bool, len(r.Witnesses)),
		VerifiedAt:     clk.NowMicros(),
	}

	hashBytes, err := substrate.DecodeHex(r.ReceiptHash)
	signatureValid := err == nil && len(hashBytes) == 32
	if signatureValid {
		canonical, cerr := receiptCanonical(r.Actor, r.ActorKey, r.ActionType.Tag(), r.Action, r.Timestamp, r.ContextHash, r.PreviousReceipt)
		if cerr != nil {
			signatureValid = false
		} else {
			recomputed := substrate.SHA256(canonical)
			var embedded [32]byte
			copy(embedded[:], hashBytes)
			signatureValid = recomputed == embedded &&
				DeriveReceiptID(recomputed) == r.ID &&
				substrate.VerifyOK(r.ActorKey, recomputed[:], r.Signature)
		}
	}
	result.SignatureValid = signatureValid

	allWitnessesValid := true
	for i, w := range r.Witnesses {
		ok := len(hashBytes) == 32 && substrate.VerifyOK(w.WitnessKey, hashBytes, w.Signature)
		result.WitnessesValid[i] = ok
		if !ok {
			allWitnessesValid = false
		}
	}

	result.IsValid = result.SignatureValid && allWitnessesValid
	return result
}

// VerifyChain verifies an ordered receipt chain oldest-to-newest: every
// receipt must verify on its own, and every receipt after the first must
// link to its immediate predecessor's id via previous_receipt.
func VerifyChain(chain []ActionReceipt, clk clock.Clock) error {
	for i, r := range chain {
		if i > 0 {
			prev := chain[i-1]
			if r.PreviousReceipt == nil || *r.PreviousReceipt != prev.ID {
				return errs.New(errs.InvalidChain, "receipt chain link broken")
			}
		}
		if !VerifyReceipt(r, clk).IsValid {
			return errs.New(errs.InvalidChain, "receipt in chain failed verification")
		}
	}
	return nil
}

// MerkleLeaf computes the leaf hash for a receipt used when anchoring a
// batch of receipts to a single published root (a supplemented,
// additive feature not named by the distilled core model).
func MerkleLeaf(r ActionReceipt) [32]byte {
	h := substrate.NewCanon().String("leaf").String(r.ReceiptHash).Bytes()
	return substrate.SHA256(h)
}

// MerkleRoot builds a binary Merkle root over a set of already-signed
// receipts. An empty input yields the zero hash.
func MerkleRoot(receipts []ActionReceipt) [32]byte {
	if len(receipts) == 0 {
		return [32]byte{}
	}
	leaves := make([][32]byte, len(receipts))
	for i, r := range receipts {
		leaves[i] = MerkleLeaf(r)
	}
	return merkleize(leaves)
}

func merkleize(nodes [][32]byte) [32]byte {
	if len(nodes) == 1 {
		return nodes[0]
	}
	if len(nodes)%2 == 1 {
		nodes = append(nodes, nodes[len(nodes)-1])
	}
	next := make([][32]byte, 0, len(nodes)/2)
	for i := 0; i < len(nodes); i += 2 {
		pair := substrate.NewCanon().RawBytes(nodes[i][:]).RawBytes(nodes[i+1][:]).Bytes()
		next = append(next, substrate.SHA256(pair))
	}
	return merkleize(next)
}

// AggregateAnchor sorts receipts by (Actor, Timestamp) for a deterministic
// order and returns the hex-encoded Merkle root over them.
func AggregateAnchor(receipts []ActionReceipt) string {
	if len(receipts) == 0 {
		return ""
	}
	sorted := make([]ActionReceipt, len(receipts))
	copy(sorted, receipts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Actor == sorted[j].Actor {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].Actor < sorted[j].Actor
	})
	root := MerkleRoot(sorted)
	return substrate.EncodeHex(root[:])
}
