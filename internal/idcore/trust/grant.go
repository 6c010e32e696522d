// Package trust implements trust grants: signed, capability-scoped,
// time-bounded, revocable statements of one identity trusting another,
// with bounded delegation chains. The signed-payload and revocation
// shape is grounded on the rotation-authorization pattern in
// other_examples' awebai-aw rotate.go (sign a canonical payload with the
// issuer's current key, verify it with the issuer's public key) and the
// session-certificate shape in the witnessd key-hierarchy example.
package trust

import (
	"crypto/ed25519"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/clock"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/errs"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

// IDPrefix is the printable-ASCII prefix for every TrustGrantId.
const IDPrefix = "atg_"

// TrustGrantId is the content-derived identifier of a grant: "atg_" +
// Base58(first 16 bytes of grant_hash).
type TrustGrantId string

// DeriveGrantID computes a TrustGrantId from a grant_hash's raw bytes.
func DeriveGrantID(grantHash [32]byte) TrustGrantId {
	return TrustGrantId(IDPrefix + substrate.EncodeBase58(grantHash[:16]))
}

// TrustConstraints bounds a grant in time, use count, and delegability.
type TrustConstraints struct {
	NotBefore          *uint64 `json:"not_before,omitempty"`
	NotAfter           *uint64 `json:"not_after,omitempty"`
	MaxUses            *uint64 `json:"max_uses,omitempty"`
	DelegationAllowed  bool    `json:"delegation_allowed"`
	MaxDelegationDepth uint32  `json:"max_delegation_depth"`
}

func (c TrustConstraints) canonical(cc *substrate.Canon) {
	cc.OptionalUint64(c.NotBefore)
	cc.OptionalUint64(c.NotAfter)
	cc.OptionalUint64(c.MaxUses)
	if c.DelegationAllowed {
		cc.Byte(1)
	} else {
		cc.Byte(0)
	}
	cc.Uint32(c.MaxDelegationDepth)
}

// TrustGrant is a signed statement that grantor trusts grantee with a
// set of capabilities, optionally derived from a parent grant in a
// delegation chain.
type TrustGrant struct {
	ID           TrustGrantId        `json:"id"`
	Grantor      string              `json:"grantor"`
	GrantorKey   ed25519.PublicKey   `json:"grantor_key"`
	Grantee      string              `json:"grantee"`
	GranteeKey   ed25519.PublicKey   `json:"grantee_key"`
	Capabilities []CapabilityPattern `json:"capabilities"`
	Constraints  TrustConstraints    `json:"constraints"`
	IssuedAt     uint64              `json:"issued_at"`
	GrantHash    string              `json:"grant_hash"`
	Signature    []byte              `json:"signature"`
	ParentGrant  *TrustGrantId       `json:"parent_grant,omitempty"`
	Depth        uint32              `json:"depth"`
}

func grantCanonical(grantor string, grantorKey ed25519.PublicKey, grantee string, granteeKey ed25519.PublicKey, capabilities []CapabilityPattern, constraints TrustConstraints, issuedAt uint64, parent *TrustGrantId) []byte {
	c := substrate.NewCanon().
		String(grantor).
		RawBytes(grantorKey).
		String(grantee).
		RawBytes(granteeKey)
	patterns := make([]string, len(capabilities))
	for i, p := range capabilities {
		patterns[i] = string(p)
	}
	c.StringList(patterns)
	constraints.canonical(c)
	c.Uint64(issuedAt)
	var parentStr *string
	if parent != nil {
		s := string(*parent)
		parentStr = &s
	}
	c.OptionalString(parentStr)
	return c.Bytes()
}

// IssueRequest carries everything a caller supplies to construct a grant
// before it is signed.
type IssueRequest struct {
	Grantor      string
	GrantorKey   ed25519.PublicKey
	Grantee      string
	GranteeKey   ed25519.PublicKey
	Capabilities []CapabilityPattern
	Constraints  TrustConstraints
	Parent       *TrustGrant
}

// Issue constructs and signs a TrustGrant. If req.Parent is set, it
// enforces the delegation rules: the parent must allow
// delegation, the new grantor must be the parent's grantee, the child's
// capabilities must be subsumed by the parent's, the child's time window
// must fit inside the parent's, and the resulting depth must not exceed
// the root's max_delegation_depth (carried down unchanged in
// Constraints.MaxDelegationDepth at every link).
func Issue(req IssueRequest, grantorSigningKey ed25519.PrivateKey, clk clock.Clock) (TrustGrant, error) {
	var depth uint32
	var parentID *TrustGrantId

	if req.Parent != nil {
		p := req.Parent
		if !p.Constraints.DelegationAllowed {
			return TrustGrant{}, errs.New(errs.DelegationNotAllowed, "parent grant does not allow delegation")
		}
		if !keyEqual(req.GrantorKey, p.GranteeKey) {
			return TrustGrant{}, errs.New(errs.DelegationNotAllowed, "grantor key does not match parent grantee key")
		}
		if !CapabilitiesSubsumed(p.Capabilities, req.Capabilities) {
			return TrustGrant{}, errs.New(errs.DelegationNotAllowed, "child capabilities are not a subset of parent capabilities")
		}
		if !timeWindowFits(p.Constraints, req.Constraints) {
			return TrustGrant{}, errs.New(errs.DelegationNotAllowed, "child time window is not bounded by parent time window")
		}
		depth = p.Depth + 1
		if depth > p.Constraints.MaxDelegationDepth {
			return TrustGrant{}, errs.New(errs.DelegationDepthExceeded, "delegation depth exceeds root max_delegation_depth")
		}
		id := p.ID
		parentID = &id
		req.Constraints.MaxDelegationDepth = p.Constraints.MaxDelegationDepth
	}

	issuedAt := clk.NowMicros()
	canonical := grantCanonical(req.Grantor, req.GrantorKey, req.Grantee, req.GranteeKey, req.Capabilities, req.Constraints, issuedAt, parentID)
	hashBytes := substrate.SHA256(canonical)
	sig, err := substrate.Sign(grantorSigningKey, hashBytes[:])
	if err != nil {
		return TrustGrant{}, err
	}

	return TrustGrant{
		ID:           DeriveGrantID(hashBytes),
		Grantor:      req.Grantor,
		GrantorKey:   req.GrantorKey,
		Grantee:      req.Grantee,
		GranteeKey:   req.GranteeKey,
		Capabilities: req.Capabilities,
		Constraints:  req.Constraints,
		IssuedAt:     issuedAt,
		GrantHash:    substrate.EncodeHex(hashBytes[:]),
		Signature:    sig,
		ParentGrant:  parentID,
		Depth:        depth,
	}, nil
}

// timeWindowFits reports whether child's [not_before, not_after] window
// is contained within parent's, treating an absent bound as unbounded on
// that side.
func timeWindowFits(parent, child TrustConstraints) bool {
	if parent.NotBefore != nil {
		if child.NotBefore == nil || *child.NotBefore < *parent.NotBefore {
			return false
		}
	}
	if parent.NotAfter != nil {
		if child.NotAfter == nil || *child.NotAfter > *parent.NotAfter {
			return false
		}
	}
	return true
}

// RevocationRecord is a signed, permanent statement that a grant is no
// longer valid.
type RevocationRecord struct {
	GrantID   TrustGrantId `json:"grant_id"`
	Revoker   string       `json:"revoker"`
	RevokedAt uint64       `json:"revoked_at"`
	Signature []byte       `json:"signature"`
}

func revocationCanonical(grantID TrustGrantId, revokedAt uint64) []byte {
	return substrate.NewCanon().String(string(grantID)).Uint64(revokedAt).Bytes()
}

// Revoke produces a RevocationRecord for grant, signed by the grantor's
// signing key. Revocation is additive and permanent; there is no
// un-revoke.
func Revoke(grant TrustGrant, grantorSigningKey ed25519.PrivateKey, clk clock.Clock) (RevocationRecord, error) {
	revokedAt := clk.NowMicros()
	canonical := revocationCanonical(grant.ID, revokedAt)
	sig, err := substrate.Sign(grantorSigningKey, canonical)
	if err != nil {
		return RevocationRecord{}, err
	}
	return RevocationRecord{
		GrantID:   grant.ID,
		Revoker:   grant.Grantor,
		RevokedAt: revokedAt,
		Signature: sig,
	}, nil
}

func keyEqual(a, b ed25519.PublicKey) bool {
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
