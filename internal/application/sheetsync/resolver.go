package sheetsyncapp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// ResolvedRow is one spreadsheet row turned into a canonical order plus the
// identity decision the writer needs
type ResolvedRow struct {
	Order *sheetsync.Order
	Key   sheetsync.OrderFilterKey
	// Existing is the already-known record matching either identity of this
	// row, nil for a brand new row
	Existing *sheetsync.Order
}

// RowResolver decides the stable identity of each incoming row and guards
// against intra-batch duplicates. Row processing is sequential: row N's
// decisions depend on the seen-set mutated by rows 0..N-1, so a resolver
// must not be shared across goroutines.
type RowResolver struct {
	source     *sheetsync.SheetSource
	classifier *sheetsync.StatusClassifier

	// Existing-record indexes loaded before the batch, so a row is
	// recognized as already known even if its apparent identity changed
	// because the value came from a different column this run
	byExternalID map[string]*sheetsync.Order
	byRowKey     map[string]*sheetsync.Order

	seen    map[string]struct{}
	skipped int
}

// NewRowResolver builds a resolver over the pre-loaded record indexes.
// existingByRowKey holds this source's records; existingByExternalID holds
// tenant-wide records keyed by external ID.
func NewRowResolver(
	source *sheetsync.SheetSource,
	classifier *sheetsync.StatusClassifier,
	existingByRowKey []sheetsync.Order,
	existingByExternalID []sheetsync.Order,
) *RowResolver {
	r := &RowResolver{
		source:       source,
		classifier:   classifier,
		byExternalID: make(map[string]*sheetsync.Order),
		byRowKey:     make(map[string]*sheetsync.Order),
		seen:         make(map[string]struct{}),
	}
	for i := range existingByRowKey {
		o := &existingByRowKey[i]
		if o.RowKey != "" {
			r.byRowKey[o.RowKey] = o
		}
		if o.ExternalID != "" {
			r.byExternalID[o.ExternalID] = o
		}
	}
	for i := range existingByExternalID {
		o := &existingByExternalID[i]
		if o.ExternalID != "" {
			r.byExternalID[o.ExternalID] = o
		}
	}
	return r
}

// SkippedDuplicates returns how many rows were dropped because an earlier
// row of the same run already claimed their external ID
func (r *RowResolver) SkippedDuplicates() int {
	return r.skipped
}

// Resolve turns a grid row into a ResolvedRow. Returns false for rows that
// produce no write: fully empty rows, and in-run duplicates (dropped and
// counted so last-write-wins cannot silently discard data).
func (r *RowResolver) Resolve(rowIndex int, row []sheetsync.Cell, headers []string, mapping sheetsync.ColumnMapping, now time.Time) (*ResolvedRow, bool) {
	if rowIsEmpty(row) {
		return nil, false
	}

	externalRaw := r.cellString(row, mapping, sheetsync.FieldOrderID)
	hasRealID := externalRaw != ""

	externalID := externalRaw
	if !hasRealID {
		externalID = sheetsync.PlaceholderExternalID(r.source.Name, rowIndex)
	}
	rowKey := sheetsync.RowKeyFor(r.source.ID, rowIndex)

	if _, dup := r.seen[externalID]; dup {
		r.skipped++
		return nil, false
	}
	r.seen[externalID] = struct{}{}

	order := &sheetsync.Order{
		TenantEntity: shared.NewTenantEntity(r.source.TenantID),
		SourceID:     r.source.ID,
		ExternalID:   externalID,
		RowKey:       rowKey,
		ClientName:   r.cellString(row, mapping, sheetsync.FieldClientName),
		ClientPhone:  r.cellString(row, mapping, sheetsync.FieldClientPhone),
		City:         r.cellString(row, mapping, sheetsync.FieldCity),
		Address:      r.cellString(row, mapping, sheetsync.FieldAddress),
		Product:      r.cellString(row, mapping, sheetsync.FieldProduct),
		Notes:        r.cellString(row, mapping, sheetsync.FieldNotes),
		Status:       r.classifier.Classify(r.cellString(row, mapping, sheetsync.FieldStatus)),
		RawFields:    captureRawFields(row, headers),
	}
	if col, ok := mapping.Column(sheetsync.FieldQuantity); ok && col < len(row) {
		order.Quantity = int(row[col].NumberValue())
	}
	if col, ok := mapping.Column(sheetsync.FieldPrice); ok && col < len(row) {
		order.Price = decimal.NewFromFloat(row[col].NumberValue())
	}
	if col, ok := mapping.Column(sheetsync.FieldDate); ok && col < len(row) {
		order.OrderDate = row[col].DateValue(now)
	} else {
		order.OrderDate = now
	}

	// When the sheet started filling in order numbers for previously
	// numberless rows, the row-key index still recognizes the record; the
	// write re-keys it onto the numbered identity going forward.
	var existing *sheetsync.Order
	if hasRealID {
		existing = r.byExternalID[externalID]
		if existing == nil {
			existing = r.byRowKey[rowKey]
		}
	} else {
		existing = r.byRowKey[rowKey]
		if existing == nil {
			existing = r.byExternalID[externalID]
		}
	}

	key := sheetsync.FilterByRowKey
	if hasRealID {
		key = sheetsync.FilterByExternalID
	}

	return &ResolvedRow{Order: order, Key: key, Existing: existing}, true
}

// cellString extracts the mapped field's text from the row, "" when the
// field is unmapped or the row is short
func (r *RowResolver) cellString(row []sheetsync.Cell, mapping sheetsync.ColumnMapping, field sheetsync.Field) string {
	col, ok := mapping.Column(field)
	if !ok || col >= len(row) {
		return ""
	}
	return row[col].StringValue()
}

// captureRawFields keeps every non-empty header/value pair so unmapped
// spreadsheet columns are not silently lost
func captureRawFields(row []sheetsync.Cell, headers []string) map[string]string {
	raw := make(map[string]string)
	for col, header := range headers {
		if header == "" || col >= len(row) {
			continue
		}
		if value := row[col].StringValue(); value != "" {
			raw[header] = value
		}
	}
	return raw
}

// rowIsEmpty returns true when every cell of the row is blank
func rowIsEmpty(row []sheetsync.Cell) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}
