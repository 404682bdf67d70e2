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
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) *ledger.Engine {
	t.Helper()
	return ledger.NewEngine(store.NewMemory())
}

func purchase(name, typ string, qty int64, base string) ledger.PurchaseRequest {
	return ledger.PurchaseRequest{AssetName: name, AssetType: typ, Quantity: qty, Base: base}
}

// =============================================================================
// PURCHASES AND THE CATALOG
// =============================================================================

func TestEngine_PurchaseIntroducesTypeAndBase(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: An admin purchases at a brand-new base with a brand-new type
	// THEN: The purchase succeeds and both values become known

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)

	types, bases, err := e.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"weapon"}, types)
	assert.Equal(t, []string{"fort-alpha"}, bases)
}

func TestEngine_AssignmentAgainstUnknownBaseDenied(t *testing.T) {
	// GIVEN: A ledger that has never seen fort-ghost
	// WHEN: An admin assigns stock at fort-ghost
	// THEN: Denied with UnknownBase - only purchases introduce new bases

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)

	_, err = e.RecordAssignment(ctx, admin(), ledger.AssignmentRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 2,
		Base: "fort-ghost", AssignedTo: "Sgt. Hale",
	})

	require.Error(t, err)
	var authErr *ledger.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ledger.DenyUnknownBase, authErr.Reason)
}

func TestEngine_ExpenditureAgainstUnknownTypeDenied(t *testing.T) {
	// GIVEN: fort-alpha exists but the type "vehicle" has no history
	// WHEN: Expending vehicles at fort-alpha
	// THEN: Denied with UnknownAssetType

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)

	_, err = e.RecordExpenditure(ctx, admin(), ledger.ExpenditureRequest{
		AssetName: "Humvee", AssetType: "vehicle", Quantity: 1,
		Base: "fort-alpha", ExpendedBy: "Motor Pool",
	})

	require.Error(t, err)
	var authErr *ledger.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ledger.DenyUnknownAssetType, authErr.Reason)
}

// =============================================================================
// TRANSFERS
// =============================================================================

func TestEngine_TransferWritesBothLegs(t *testing.T) {
	// GIVEN: Stock purchased at fort-alpha
	// WHEN: Transferring to fort-bravo
	// THEN: Both legs are queryable, linked, and the destination base is
	//       now known even though nothing was ever purchased there

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)

	out, in, err := e.RecordTransfer(ctx, admin(), ledger.TransferRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 4,
		FromBase: "fort-alpha", ToBase: "fort-bravo",
	})
	require.NoError(t, err)
	assert.Equal(t, out.TransferID, in.TransferID)

	outs, err := e.History(ctx, admin(), ledger.Filter{Kind: ledger.KindTransferOut})
	require.NoError(t, err)
	ins, err := e.History(ctx, admin(), ledger.Filter{Kind: ledger.KindTransferIn})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Len(t, ins, 1)
	assert.Equal(t, outs[0].TransferID, ins[0].TransferID)

	_, bases, err := e.Filters(ctx)
	require.NoError(t, err)
	assert.Contains(t, bases, "fort-bravo")
}

func TestEngine_AdminTransferFromUnknownBaseDenied(t *testing.T) {
	// GIVEN: fort-ghost has no movement history
	// WHEN: An admin transfers out of fort-ghost
	// THEN: Denied with UnknownBase and nothing is persisted

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)

	_, _, err = e.RecordTransfer(ctx, admin(), ledger.TransferRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 1,
		FromBase: "fort-ghost", ToBase: "fort-alpha",
	})

	require.Error(t, err)
	var authErr *ledger.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ledger.DenyUnknownBase, authErr.Reason)

	records, err := e.History(ctx, admin(), ledger.Filter{Kind: ledger.KindTransferOut})
	require.NoError(t, err)
	assert.Empty(t, records, "denied transfer must leave no legs behind")
}

func TestEngine_LogisticsTransferAllowed(t *testing.T) {
	// GIVEN: Stock at fort-alpha
	// WHEN: A logistics actor transfers with explicit bases
	// THEN: The transfer succeeds; logistics needs no home base

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)

	out, _, err := e.RecordTransfer(ctx, logistics(), ledger.TransferRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 2,
		FromBase: "fort-alpha", ToBase: "fort-bravo",
	})
	require.NoError(t, err)
	assert.Equal(t, "fort-alpha", out.Base)
}

// =============================================================================
// COMMANDER SCOPING
// =============================================================================

func TestEngine_CommanderOverridePersisted(t *testing.T) {
	// GIVEN: A commander bound to fort-alpha
	// WHEN: Purchasing with a mismatched base in the request
	// THEN: The persisted record carries the home base

	e := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.RecordPurchase(ctx, commander("fort-alpha"), purchase("M4 Carbine", "weapon", 5, "fort-bravo"))
	require.NoError(t, err)
	assert.Equal(t, "fort-alpha", rec.Base)

	stored, err := e.History(ctx, admin(), ledger.Filter{Kind: ledger.KindPurchase})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "fort-alpha", stored[0].Base)
}

func TestEngine_CommanderHistoryPinnedToHomeBase(t *testing.T) {
	// GIVEN: Purchases at two bases
	// WHEN: A fort-alpha commander reads purchase history, even asking
	//       for the other base
	// THEN: Only fort-alpha records come back

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)
	_, err = e.RecordPurchase(ctx, admin(), purchase("Humvee", "vehicle", 3, "fort-bravo"))
	require.NoError(t, err)

	records, err := e.History(ctx, commander("fort-alpha"), ledger.Filter{
		Kind: ledger.KindPurchase,
		Base: "fort-bravo",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fort-alpha", records[0].Base)
}

func TestEngine_CommanderBalancePinnedToHomeBase(t *testing.T) {
	// Balance queries get the same pinning as history.

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)
	_, err = e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 99, "fort-bravo"))
	require.NoError(t, err)

	result, err := e.Balance(ctx, commander("fort-alpha"), ledger.BalanceQuery{Base: "fort-bravo"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.ClosingBalance)
}

// =============================================================================
// HISTORY VISIBILITY
// =============================================================================

func TestEngine_LogisticsCannotViewAssignments(t *testing.T) {
	// GIVEN: Assignment records exist
	// WHEN: A logistics actor queries assignment history
	// THEN: Denied with RoleForbidden; expenditures are equally off-limits

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)
	_, err = e.RecordAssignment(ctx, admin(), ledger.AssignmentRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 2,
		Base: "fort-alpha", AssignedTo: "Sgt. Hale",
	})
	require.NoError(t, err)

	_, err = e.History(ctx, logistics(), ledger.Filter{Kind: ledger.KindAssignment})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrAuthorization)

	_, err = e.History(ctx, logistics(), ledger.Filter{Kind: ledger.KindExpenditure})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrAuthorization)
}

func TestEngine_LogisticsKindlessHistoryFiltered(t *testing.T) {
	// GIVEN: Purchases, a transfer, an assignment, and an expenditure
	// WHEN: A logistics actor reads history without naming a kind
	// THEN: Assignment and expenditure records are absent from the result,
	//       not just unreachable through the kind filter

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)
	_, _, err = e.RecordTransfer(ctx, admin(), ledger.TransferRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 2,
		FromBase: "fort-alpha", ToBase: "fort-bravo",
	})
	require.NoError(t, err)
	_, err = e.RecordAssignment(ctx, admin(), ledger.AssignmentRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 3,
		Base: "fort-alpha", AssignedTo: "Sgt. Hale",
	})
	require.NoError(t, err)
	_, err = e.RecordExpenditure(ctx, admin(), ledger.ExpenditureRequest{
		AssetName: "M4 Carbine", AssetType: "weapon", Quantity: 1,
		Base: "fort-alpha", ExpendedBy: "Alpha Company",
	})
	require.NoError(t, err)

	records, err := e.History(ctx, logistics(), ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 3, "purchase plus the two transfer legs")
	for _, r := range records {
		assert.NotEqual(t, ledger.KindAssignment, r.Kind)
		assert.NotEqual(t, ledger.KindExpenditure, r.Kind)
	}

	// The same query from an admin sees everything.
	records, err = e.History(ctx, admin(), ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestEngine_EmptyHistoryIsEmptySlice(t *testing.T) {
	// No matches yields an empty slice, never nil and never an error.

	e := newTestEngine(t)

	records, err := e.History(context.Background(), admin(), ledger.Filter{Kind: ledger.KindExpenditure})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

// =============================================================================
// FILTER CATALOG
// =============================================================================

func TestEngine_FiltersSortedAndDeduplicated(t *testing.T) {
	// GIVEN: Repeated and unsorted types/bases across the history
	// WHEN: Reading the filter catalog
	// THEN: Each value appears once, sorted

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordPurchase(ctx, admin(), purchase("Humvee", "vehicle", 3, "fort-delta"))
	require.NoError(t, err)
	_, err = e.RecordPurchase(ctx, admin(), purchase("M4 Carbine", "weapon", 10, "fort-alpha"))
	require.NoError(t, err)
	_, err = e.RecordPurchase(ctx, admin(), purchase("M4A1", "weapon", 5, "fort-alpha"))
	require.NoError(t, err)

	types, bases, err := e.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vehicle", "weapon"}, types)
	assert.Equal(t, []string{"fort-alpha", "fort-delta"}, bases)
}
