package trust

import "github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"

// VerificationResult is the structured outcome of verifying a single
// grant against a query capability.
type VerificationResult struct {
	SignatureValid    bool
	TimeValid         bool
	UsesValid         bool
	CapabilityMatches bool
	NotRevoked        bool
	IsValid           bool
}

// VerifyGrant checks g against a query capability, a use count the
// caller maintains externally (keyed by g.ID), a revocation set, and the
// current time. It never returns an error: a grant that fails to verify
// is reported via the result's flags, not an error.
func VerifyGrant(g TrustGrant, query string, currentUses uint64, revocations []RevocationRecord, now uint64) VerificationResult {
	var result VerificationResult

	canonical := grantCanonical(g.Grantor, g.GrantorKey, g.Grantee, g.GranteeKey, g.Capabilities, g.Constraints, g.IssuedAt, g.ParentGrant)
	hashBytes, err := substrate.DecodeHex(g.GrantHash)
	if err == nil && len(hashBytes) == 32 {
		recomputed := substrate.SHA256(canonical)
		var embedded [32]byte
		copy(embedded[:], hashBytes)
		result.SignatureValid = recomputed == embedded &&
			DeriveGrantID(recomputed) == g.ID &&
			substrate.VerifyOK(g.GrantorKey, hashBytes, g.Signature)
	}

	result.TimeValid = (g.Constraints.NotBefore == nil || now >= *g.Constraints.NotBefore) &&
		(g.Constraints.NotAfter == nil || now <= *g.Constraints.NotAfter)

	result.UsesValid = g.Constraints.MaxUses == nil || currentUses < *g.Constraints.MaxUses

	result.CapabilityMatches = MatchesAny(g.Capabilities, query)

	result.NotRevoked = true
	for _, rec := range revocations {
		if rec.GrantID != g.ID || rec.Revoker != g.Grantor {
			continue
		}
		canon := revocationCanonical(rec.GrantID, rec.RevokedAt)
		if substrate.VerifyOK(g.GrantorKey, canon, rec.Signature) {
			result.NotRevoked = false
			break
		}
	}

	result.IsValid = result.SignatureValid && result.TimeValid && result.UsesValid &&
		result.CapabilityMatches && result.NotRevoked
	return result
}

// ChainVerificationResult reports whether an entire delegation chain
// verifies and, if not, which link failed first.
type ChainVerificationResult struct {
	IsValid     bool
	FailedIndex int // -1 when IsValid
}

// VerifyChain verifies every grant in chain independently against query,
// then checks the delegation linkage between consecutive grants:
// grantor_key must equal the previous grantee_key, parent_grant must
// point at the previous grant's id, depth must increment by exactly one,
// and no grant's depth may exceed the root's max_delegation_depth. The
// effective capability set and time window narrow link by link because
// Issue already enforced that at construction time; VerifyChain re-checks
// the query and linkage, not containment again.
func VerifyChain(chain []TrustGrant, query string, currentUses []uint64, revocations []RevocationRecord, now uint64) ChainVerificationResult {
	if len(chain) == 0 {
		return ChainVerificationResult{IsValid: false, FailedIndex: -1}
	}
	rootMaxDepth := chain[0].Constraints.MaxDelegationDepth

	for i, g := range chain {
		var uses uint64
		if i < len(currentUses) {
			uses = currentUses[i]
		}
		if !VerifyGrant(g, query, uses, revocations, now).IsValid {
			return ChainVerificationResult{IsValid: false, FailedIndex: i}
		}
		if g.Depth > rootMaxDepth {
			return ChainVerificationResult{IsValid: false, FailedIndex: i}
		}
		if i > 0 {
			prev := chain[i-1]
			if !keyEqual(g.GrantorKey, prev.GranteeKey) {
				return ChainVerificationResult{IsValid: false, FailedIndex: i}
			}
			if g.ParentGrant == nil || *g.ParentGrant != prev.ID {
				return ChainVerificationResult{IsValid: false, FailedIndex: i}
			}
			if g.Depth != prev.Depth+1 {
				return ChainVerificationResult{IsValid: false, FailedIndex: i}
			}
		}
	}
	return ChainVerificationResult{IsValid: true, FailedIndex: -1}
}
