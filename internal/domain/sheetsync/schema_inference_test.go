package sheetsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSchema_FrenchMerchantSheet(t *testing.T) {
	headers := []string{"Nom Client", "Tel", "Ville", "Produit", "Prix Unitaire", "Statut Livraison", "Quantité"}

	mapping := InferSchema(headers)

	expected := ColumnMapping{
		FieldClientName:  0,
		FieldClientPhone: 1,
		FieldCity:        2,
		FieldProduct:     3,
		FieldPrice:       4,
		FieldStatus:      5,
		FieldQuantity:    6,
	}
	assert.Equal(t, expected, mapping)

	// No column claimed twice
	seen := make(map[int]Field)
	for f, col := range mapping {
		prev, dup := seen[col]
		require.False(t, dup, "column %d claimed by both %s and %s", col, prev, f)
		seen[col] = f
	}
}

func TestInferSchema_CompoundBeatsSimple(t *testing.T) {
	// "Prix" alone must not claim the "Prix Unitaire" column away from the
	// compound match when a neighboring header is also plausible.
	headers := []string{"Prix Unitaire", "Prix Total Commande"}

	mapping := InferSchema(headers)

	assert.Equal(t, 0, mapping[FieldPrice])
}

func TestInferSchema_EnglishHeaders(t *testing.T) {
	headers := []string{"Order ID", "Order Date", "Client Name", "Phone Number", "City", "Address", "Product", "Qty", "Unit Price", "Order Status", "Notes"}

	mapping := InferSchema(headers)

	assert.Equal(t, 0, mapping[FieldOrderID])
	assert.Equal(t, 1, mapping[FieldDate])
	assert.Equal(t, 2, mapping[FieldClientName])
	assert.Equal(t, 3, mapping[FieldClientPhone])
	assert.Equal(t, 4, mapping[FieldCity])
	assert.Equal(t, 5, mapping[FieldAddress])
	assert.Equal(t, 6, mapping[FieldProduct])
	assert.Equal(t, 7, mapping[FieldQuantity])
	assert.Equal(t, 8, mapping[FieldPrice])
	assert.Equal(t, 9, mapping[FieldStatus])
	assert.Equal(t, 10, mapping[FieldNotes])
}

func TestInferSchema_UnmatchedFieldsLeftUnmapped(t *testing.T) {
	headers := []string{"Nom Client", "Tel"}

	mapping := InferSchema(headers)

	_, hasPrice := mapping.Column(FieldPrice)
	assert.False(t, hasPrice)
	_, hasStatus := mapping.Column(FieldStatus)
	assert.False(t, hasStatus)
	assert.Len(t, mapping, 2)
}

func TestInferSchema_StatusFallback(t *testing.T) {
	// "Livraison" alone matches no status compound and, as a simple token,
	// belongs to no field's simple set; the status fallback must claim it.
	headers := []string{"Nom Client", "Livraison"}

	mapping := InferSchema(headers)

	col, ok := mapping.Column(FieldStatus)
	assert.True(t, ok)
	assert.Equal(t, 1, col)
}

func TestInferSchema_BlankHeadersIgnored(t *testing.T) {
	headers := []string{"", "Ville", ""}

	mapping := InferSchema(headers)

	assert.Equal(t, ColumnMapping{FieldCity: 1}, mapping)
}
