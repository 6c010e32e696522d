package trust_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/trust"
)

func TestCapabilityPatternMatchesTrailingWildcard(t *testing.T) {
	p := trust.CapabilityPattern("read:calendar:*")
	assert.True(t, p.Matches("read:calendar:today"))
	assert.True(t, p.Matches("read:calendar:today:detail"))
	assert.True(t, p.Matches("read:calendar"))
	assert.False(t, p.Matches("write:calendar:today"))
}

func TestCapabilityPatternMatchesMiddleWildcard(t *testing.T) {
	p := trust.CapabilityPattern("read:*:today")
	assert.True(t, p.Matches("read:calendar:today"))
	assert.True(t, p.Matches("read:email:today"))
	assert.False(t, p.Matches("read:calendar:tomorrow"))
	assert.False(t, p.Matches("read:calendar:today:extra"))
}

func TestCapabilityPatternBareWildcardMatchesEverything(t *testing.T) {
	p := trust.CapabilityPattern("*")
	assert.True(t, p.Matches("read:calendar:today"))
	assert.True(t, p.Matches("anything"))
}

func TestMatchesAny(t *testing.T) {
	patterns := []trust.CapabilityPattern{"read:calendar:*", "write:email:*"}
	assert.True(t, trust.MatchesAny(patterns, "write:email:draft"))
	assert.False(t, trust.MatchesAny(patterns, "delete:calendar:today"))
}

func TestSubsumesTrailingWildcardOverLiteral(t *testing.T) {
	parent := trust.CapabilityPattern("read:calendar:*")
	child := trust.CapabilityPattern("read:calendar:today")
	assert.True(t, trust.Subsumes(parent, child))
	assert.False(t, trust.Subsumes(child, parent))
}

func TestSubsumesRejectsBroaderChild(t *testing.T) {
	parent := trust.CapabilityPattern("read:calendar:today")
	child := trust.CapabilityPattern("read:calendar:*")
	assert.False(t, trust.Subsumes(parent, child))
}

func TestSubsumesIdenticalPattern(t *testing.T) {
	p := trust.CapabilityPattern("read:calendar:today")
	assert.True(t, trust.Subsumes(p, p))
}

func TestCapabilitiesSubsumedRequiresEveryChildCovered(t *testing.T) {
	parent := []trust.CapabilityPattern{"read:calendar:*"}
	okChild := []trust.CapabilityPattern{"read:calendar:today"}
	badChild := []trust.CapabilityPattern{"read:calendar:today", "write:calendar:today"}

	assert.True(t, trust.CapabilitiesSubsumed(parent, okChild))
	assert.False(t, trust.CapabilitiesSubsumed(parent, badChild))
}
