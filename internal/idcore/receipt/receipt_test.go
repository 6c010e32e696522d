package receipt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/clock"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/receipt"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

func signAndVerify(t *testing.T) (receipt.ActionReceipt, *substrate.KeyPair) {
	t.Helper()
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	r, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor:      "aid_testactor",
		ActorKey:   kp.Public,
		ActionType: receipt.ActionType{Kind: receipt.ActionDecision},
		Action:     receipt.ActionContent{Description: "approved payment"},
	}, kp.Private, clock.Fixed(1000))
	require.NoError(t, err)
	return r, kp
}

func TestBuildAndSignProducesVerifiableReceipt(t *testing.T) {
	r, _ := signAndVerify(t)
	result := receipt.VerifyReceipt(r, clock.Fixed(2000))
	assert.True(t, result.SignatureValid)
	assert.True(t, result.IsValid)
	assert.Equal(t, receipt.DeriveReceiptID(mustHash(t, r)), r.ID)
}

func mustHash(t *testing.T, r receipt.ActionReceipt) [32]byte {
	t.Helper()
	b, err := substrate.DecodeHex(r.ReceiptHash)
	require.NoError(t, err)
	var out [32]byte
	copy(out[:], b)
	return out
}

func TestVerifyReceiptDetectsTamperedContent(t *testing.T) {
	r, _ := signAndVerify(t)
	r.Action.Description = "tampered description"

	result := receipt.VerifyReceipt(r, clock.Fixed(2000))
	assert.False(t, result.SignatureValid)
	assert.False(t, result.IsValid)
}

func TestVerifyReceiptDetectsTamperedSignature(t *testing.T) {
	r, _ := signAndVerify(t)
	r.Signature[0] ^= 0xFF

	result := receipt.VerifyReceipt(r, clock.Fixed(2000))
	assert.False(t, result.SignatureValid)
}

func TestAddWitnessAndVerify(t *testing.T) {
	r, _ := signAndVerify(t)
	hashBytes, err := substrate.DecodeHex(r.ReceiptHash)
	require.NoError(t, err)
	var receiptHash [32]byte
	copy(receiptHash[:], hashBytes)

	witnessKp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	w, err := receipt.NewWitnessSignature("aid_witness", witnessKp.Private, witnessKp.Public, receiptHash, clock.Fixed(1500))
	require.NoError(t, err)
	r.AddWitness(w)

	result := receipt.VerifyReceipt(r, clock.Fixed(2000))
	require.Len(t, result.WitnessesValid, 1)
	assert.True(t, result.WitnessesValid[0])
	assert.True(t, result.IsValid)
}

func TestAddWitnessWithWrongKeyFailsVerification(t *testing.T) {
	r, _ := signAndVerify(t)
	hashBytes, err := substrate.DecodeHex(r.ReceiptHash)
	require.NoError(t, err)
	var receiptHash [32]byte
	copy(receiptHash[:], hashBytes)

	signerKp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)
	otherKp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	w, err := receipt.NewWitnessSignature("aid_witness", signerKp.Private, otherKp.Public, receiptHash, clock.Fixed(1500))
	require.NoError(t, err)
	r.AddWitness(w)

	result := receipt.VerifyReceipt(r, clock.Fixed(2000))
	assert.False(t, result.WitnessesValid[0])
	assert.False(t, result.IsValid)
}

func TestVerifyChainAcceptsLinkedReceipts(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	first, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor:      "aid_testactor",
		ActorKey:   kp.Public,
		ActionType: receipt.ActionType{Kind: receipt.ActionObservation},
		Action:     receipt.ActionContent{Description: "step one"},
	}, kp.Private, clock.Fixed(1000))
	require.NoError(t, err)

	firstID := first.ID
	second, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor:           "aid_testactor",
		ActorKey:        kp.Public,
		ActionType:      receipt.ActionType{Kind: receipt.ActionObservation},
		Action:          receipt.ActionContent{Description: "step two"},
		PreviousReceipt: &firstID,
	}, kp.Private, clock.Fixed(2000))
	require.NoError(t, err)

	assert.NoError(t, receipt.VerifyChain([]receipt.ActionReceipt{first, second}, clock.Fixed(3000)))
}

func TestVerifyChainRejectsBrokenLink(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	first, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor:      "aid_testactor",
		ActorKey:   kp.Public,
		ActionType: receipt.ActionType{Kind: receipt.ActionObservation},
		Action:     receipt.ActionContent{Description: "step one"},
	}, kp.Private, clock.Fixed(1000))
	require.NoError(t, err)

	second, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor:      "aid_testactor",
		ActorKey:   kp.Public,
		ActionType: receipt.ActionType{Kind: receipt.ActionObservation},
		Action:     receipt.ActionContent{Description: "step two, no previous_receipt link"},
	}, kp.Private, clock.Fixed(2000))
	require.NoError(t, err)

	assert.Error(t, receipt.VerifyChain([]receipt.ActionReceipt{first, second}, clock.Fixed(3000)))
}

func TestMerkleRootSingleLeafEqualsLeafHash(t *testing.T) {
	r, _ := signAndVerify(t)
	root := receipt.MerkleRoot([]receipt.ActionReceipt{r})
	assert.Equal(t, receipt.MerkleLeaf(r), root)
}

func TestAggregateAnchorIsOrderIndependent(t *testing.T) {
	kp, err := substrate.GenerateKeyPair(nil)
	require.NoError(t, err)

	r1, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor: "aid_a", ActorKey: kp.Public,
		ActionType: receipt.ActionType{Kind: receipt.ActionObservation},
		Action:     receipt.ActionContent{Description: "first"},
	}, kp.Private, clock.Fixed(1000))
	require.NoError(t, err)

	r2, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor: "aid_b", ActorKey: kp.Public,
		ActionType: receipt.ActionType{Kind: receipt.ActionObservation},
		Action:     receipt.ActionContent{Description: "second"},
	}, kp.Private, clock.Fixed(2000))
	require.NoError(t, err)

	anchorA := receipt.AggregateAnchor([]receipt.ActionReceipt{r1, r2})
	anchorB := receipt.AggregateAnchor([]receipt.ActionReceipt{r2, r1})
	assert.Equal(t, anchorA, anchorB)
	assert.NotEmpty(t, anchorA)
}

func TestAggregateAnchorEmptyInput(t *testing.T) {
	assert.Equal(t, "", receipt.AggregateAnchor(nil))
}
