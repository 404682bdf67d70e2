package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// SINGLE RECORD CONSTRUCTION
// =============================================================================

func TestNewMovement_Purchase(t *testing.T) {
	// GIVEN: A complete purchase input with a unit cost
	// WHEN: Constructing the record
	// THEN: ID and CreatedAt are assigned; total cost multiplies out

	rec, err := ledger.NewMovement(ledger.MovementInput{
		Kind:      ledger.KindPurchase,
		AssetType: "weapon",
		AssetName: "M4 Carbine",
		Quantity:  10,
		Base:      "fort-alpha",
		UnitCost:  decimal.NewFromInt(1200),
		Actor:     admin(),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, int64(10), rec.Quantity)
	assert.True(t, rec.TotalCost().Equal(decimal.NewFromInt(12000)))
}

func TestNewMovement_RejectsNonPositiveQuantity(t *testing.T) {
	// Quantities are positive integers; zero and negative are both invalid.

	for _, qty := range []int64{0, -4} {
		_, err := ledger.NewMovement(ledger.MovementInput{
			Kind:      ledger.KindPurchase,
			AssetType: "weapon",
			AssetName: "M4 Carbine",
			Quantity:  qty,
			Base:      "fort-alpha",
			Actor:     admin(),
		})

		require.Error(t, err, "quantity %d", qty)
		assert.ErrorIs(t, err, ledger.ErrValidation)

		var vErr *ledger.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "quantity", vErr.Field)
	}
}

func TestNewMovement_KindSpecificFields(t *testing.T) {
	// GIVEN: Inputs missing their kind-specific required field
	// WHEN: Constructing records
	// THEN: Each fails validation on the right field

	cases := []struct {
		name  string
		in    ledger.MovementInput
		field string
	}{
		{
			name: "assignment without assignee",
			in: ledger.MovementInput{
				Kind: ledger.KindAssignment, AssetType: "weapon", AssetName: "M4",
				Quantity: 1, Base: "fort-alpha",
			},
			field: "assignedTo",
		},
		{
			name: "expenditure without expender",
			in: ledger.MovementInput{
				Kind: ledger.KindExpenditure, AssetType: "ammo", AssetName: "5.56mm",
				Quantity: 1, Base: "fort-alpha",
			},
			field: "expendedBy",
		},
		{
			name: "transfer leg without counterpart",
			in: ledger.MovementInput{
				Kind: ledger.KindTransferOut, AssetType: "weapon", AssetName: "M4",
				Quantity: 1, Base: "fort-alpha",
			},
			field: "counterpartBase",
		},
		{
			name: "counterpart on non-transfer kind",
			in: ledger.MovementInput{
				Kind: ledger.KindPurchase, AssetType: "weapon", AssetName: "M4",
				Quantity: 1, Base: "fort-alpha", CounterpartBase: "fort-bravo",
			},
			field: "counterpartBase",
		},
		{
			name: "unit cost on non-purchase kind",
			in: ledger.MovementInput{
				Kind: ledger.KindAssignment, AssetType: "weapon", AssetName: "M4",
				Quantity: 1, Base: "fort-alpha", AssignedTo: "Sgt. Hale",
				UnitCost: decimal.NewFromInt(5),
			},
			field: "unitCost",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.NewMovement(tc.in)
			require.Error(t, err)

			var vErr *ledger.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

// =============================================================================
// TRANSFER PAIR CONSTRUCTION
// =============================================================================

func TestNewTransferPair_LinkedLegs(t *testing.T) {
	// GIVEN: A transfer input between two bases
	// WHEN: Building the pair
	// THEN: Legs share TransferID and timestamp, carry reciprocal bases,
	//       identical quantity and asset fields, and distinct IDs

	out, in, err := ledger.NewTransferPair(ledger.TransferInput{
		AssetType: "vehicle",
		AssetName: "Humvee",
		Quantity:  4,
		FromBase:  "fort-alpha",
		ToBase:    "fort-bravo",
		Actor:     logistics(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.KindTransferOut, out.Kind)
	assert.Equal(t, ledger.KindTransferIn, in.Kind)
	assert.NotEmpty(t, out.TransferID)
	assert.Equal(t, out.TransferID, in.TransferID)
	assert.NotEqual(t, out.ID, in.ID)
	assert.True(t, out.CreatedAt.Equal(in.CreatedAt))

	assert.Equal(t, "fort-alpha", out.Base)
	assert.Equal(t, "fort-bravo", out.CounterpartBase)
	assert.Equal(t, "fort-bravo", in.Base)
	assert.Equal(t, "fort-alpha", in.CounterpartBase)

	assert.Equal(t, out.Quantity, in.Quantity)
	assert.Equal(t, out.AssetType, in.AssetType)
	assert.Equal(t, out.AssetName, in.AssetName)
}

func TestNewTransferPair_SameBaseRejected(t *testing.T) {
	// A transfer from a base to itself fails construction even if policy
	// checks were somehow bypassed.

	_, _, err := ledger.NewTransferPair(ledger.TransferInput{
		AssetType: "vehicle",
		AssetName: "Humvee",
		Quantity:  1,
		FromBase:  "fort-alpha",
		ToBase:    "fort-alpha",
		Actor:     admin(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
