package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/ledger/store"
)

// =============================================================================
// SINGLE APPEND RULES
// =============================================================================

func TestLedger_RejectsLoneTransferLeg(t *testing.T) {
	// GIVEN: A single transfer leg
	// WHEN: Appending it through the single-record path
	// THEN: Rejected - legs only enter as a pair

	l := ledger.NewLedger(store.NewMemory())

	out, _, err := ledger.NewTransferPair(ledger.TransferInput{
		AssetType: "weapon", AssetName: "M4 Carbine", Quantity: 1,
		FromBase: "fort-alpha", ToBase: "fort-bravo", Actor: admin(),
	})
	require.NoError(t, err)

	err = l.Append(context.Background(), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// PAIR LINKAGE CHECKS
// =============================================================================

func TestLedger_AppendPairRejectsBrokenLinkage(t *testing.T) {
	// GIVEN: Pairs tampered with after construction
	// WHEN: Appending each
	// THEN: The linkage check catches every break before the store sees it

	l := ledger.NewLedger(store.NewMemory())
	ctx := context.Background()

	build := func() (ledger.MovementRecord, ledger.MovementRecord) {
		out, in, err := ledger.NewTransferPair(ledger.TransferInput{
			AssetType: "weapon", AssetName: "M4 Carbine", Quantity: 4,
			FromBase: "fort-alpha", ToBase: "fort-bravo", Actor: admin(),
		})
		require.NoError(t, err)
		return out, in
	}

	t.Run("mismatched transfer id", func(t *testing.T) {
		out, in := build()
		in.TransferID = "something-else"
		assert.ErrorIs(t, l.AppendPair(ctx, out, in), ledger.ErrValidation)
	})

	t.Run("mismatched quantity", func(t *testing.T) {
		out, in := build()
		in.Quantity = 5
		assert.ErrorIs(t, l.AppendPair(ctx, out, in), ledger.ErrValidation)
	})

	t.Run("non-reciprocal bases", func(t *testing.T) {
		out, in := build()
		in.Base = "fort-charlie"
		assert.ErrorIs(t, l.AppendPair(ctx, out, in), ledger.ErrValidation)
	})

	t.Run("legs swapped", func(t *testing.T) {
		out, in := build()
		assert.ErrorIs(t, l.AppendPair(ctx, in, out), ledger.ErrValidation)
	})
}

func TestLedger_AppendPairPersistsBothLegs(t *testing.T) {
	// GIVEN: A well-formed pair
	// WHEN: Appending it
	// THEN: Both legs are retrievable by id and by query

	mem := store.NewMemory()
	l := ledger.NewLedger(mem)
	ctx := context.Background()

	out, in, err := ledger.NewTransferPair(ledger.TransferInput{
		AssetType: "weapon", AssetName: "M4 Carbine", Quantity: 4,
		FromBase: "fort-alpha", ToBase: "fort-bravo", Actor: admin(),
	})
	require.NoError(t, err)
	require.NoError(t, l.AppendPair(ctx, out, in))

	got, err := l.Get(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindTransferOut, got.Kind)

	got, err = l.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindTransferIn, got.Kind)

	all, err := l.Query(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLedger_GetUnknownIDIsNotFound(t *testing.T) {
	l := ledger.NewLedger(store.NewMemory())

	_, err := l.Get(context.Background(), "no-such-record")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
