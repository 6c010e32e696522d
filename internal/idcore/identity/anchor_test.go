package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/clock"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/identity"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

func TestDeriveIDIsPure(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	id1 := identity.DeriveID(kp.Public)
	id2 := identity.DeriveID(kp.Public)
	assert.Equal(t, id1, id2)
	assert.Contains(t, string(id1), identity.IDPrefix)
}

func TestCreateAnchorHasEmptyRotationHistory(t *testing.T) {
	anchor, err := identity.Create(nil, clock.Fixed(1000), nil)
	require.NoError(t, err)
	defer anchor.Close()

	assert.Empty(t, anchor.RotationHistory())
	assert.Equal(t, identity.DeriveID(anchor.CurrentPublicKey()), anchor.ID())
}

func TestRotateKeepsIDFixedToGenesisKey(t *testing.T) {
	anchor, err := identity.Create(nil, clock.Fixed(1000), nil)
	require.NoError(t, err)
	defer anchor.Close()

	originalID := anchor.ID()
	genesisKey := anchor.CurrentPublicKey()

	_, err = anchor.Rotate(identity.RotationReason{Kind: identity.ReasonScheduled}, clock.Fixed(2000), nil)
	require.NoError(t, err)

	assert.Equal(t, originalID, anchor.ID())
	assert.Equal(t, identity.DeriveID(genesisKey), anchor.ID())
	assert.NotEqual(t, genesisKey, anchor.CurrentPublicKey())
}

func TestRotateAppendsVerifiableHistory(t *testing.T) {
	anchor, err := identity.Create(nil, clock.Fixed(1000), nil)
	require.NoError(t, err)
	defer anchor.Close()

	genesisKey := anchor.CurrentPublicKey()

	_, err = anchor.Rotate(identity.RotationReason{Kind: identity.ReasonScheduled}, clock.Fixed(2000), nil)
	require.NoError(t, err)
	_, err = anchor.Rotate(identity.RotationReason{Kind: identity.ReasonCompromised}, clock.Fixed(3000), nil)
	require.NoError(t, err)

	history := anchor.RotationHistory()
	require.Len(t, history, 2)
	assert.NoError(t, identity.VerifyRotationHistory(genesisKey, history))
}

func TestVerifyRotationHistoryRejectsBrokenChain(t *testing.T) {
	anchor, err := identity.Create(nil, clock.Fixed(1000), nil)
	require.NoError(t, err)
	defer anchor.Close()
	genesisKey := anchor.CurrentPublicKey()

	_, err = anchor.Rotate(identity.RotationReason{Kind: identity.ReasonScheduled}, clock.Fixed(2000), nil)
	require.NoError(t, err)

	history := anchor.RotationHistory()
	history[0].NewPublicKey = append([]byte(nil), history[0].NewPublicKey...)
	history[0].NewPublicKey[0] ^= 0xFF

	assert.Error(t, identity.VerifyRotationHistory(genesisKey, history))
}

func TestVerifyRotationHistoryRejectsNonMonotonicTimestamps(t *testing.T) {
	anchor, err := identity.Create(nil, clock.Fixed(1000), nil)
	require.NoError(t, err)
	defer anchor.Close()
	genesisKey := anchor.CurrentPublicKey()

	_, err = anchor.Rotate(identity.RotationReason{Kind: identity.ReasonScheduled}, clock.Fixed(3000), nil)
	require.NoError(t, err)
	_, err = anchor.Rotate(identity.RotationReason{Kind: identity.ReasonScheduled}, clock.Fixed(2000), nil)
	require.NoError(t, err)

	history := anchor.RotationHistory()

	assert.Error(t, identity.VerifyRotationHistory(genesisKey, history))
}
