package sheetsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ordersuite/backend/internal/domain/shared"
)

// OrderStatus is the canonical order lifecycle state. The nine canonical
// values below are what the rest of the system reasons about; a manually
// edited order may carry an arbitrary custom string.
type OrderStatus string

const (
	StatusPending     OrderStatus = "pending"
	StatusConfirmed   OrderStatus = "confirmed"
	StatusShipped     OrderStatus = "shipped"
	StatusDelivered   OrderStatus = "delivered"
	StatusReturned    OrderStatus = "returned"
	StatusCancelled   OrderStatus = "cancelled"
	StatusUnreachable OrderStatus = "unreachable"
	StatusCalled      OrderStatus = "called"
	StatusPostponed   OrderStatus = "postponed"
)

// CanonicalStatuses returns the nine canonical statuses
func CanonicalStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending, StatusConfirmed, StatusShipped,
		StatusDelivered, StatusReturned, StatusCancelled,
		StatusUnreachable, StatusCalled, StatusPostponed,
	}
}

// IsCanonical returns true if the status is one of the nine canonical values
func (s OrderStatus) IsCanonical() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped,
		StatusDelivered, StatusReturned, StatusCancelled,
		StatusUnreachable, StatusCalled, StatusPostponed:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (s OrderStatus) String() string {
	return string(s)
}

// Order is the canonical reconciled record built from a spreadsheet row.
//
// Identity is unique per tenant on either a non-empty external order
// identifier or the synthetic row key, whichever the run's resolver chose
// as the write filter.
type Order struct {
	shared.TenantEntity
	SourceID uuid.UUID
	// ExternalID is the order identifier from the source, or a generated
	// placeholder when the sheet carries none
	ExternalID string
	// RowKey is the synthetic identity derived from (source, row position)
	RowKey      string
	ClientName  string
	ClientPhone string
	City        string
	Address     string
	Product     string
	Quantity    int
	Price       decimal.Decimal
	OrderDate   time.Time
	Status      OrderStatus
	// StatusManual marks a human-applied status. While set, no sync run may
	// change Status; downstream writers must set it or the next run will
	// silently revert their change.
	StatusManual   bool
	StatusManualAt *time.Time
	// RawFields captures every non-empty header/value pair from the source
	// row, including columns with no canonical mapping
	RawFields map[string]string
	Notes     string
}

// RowKeyFor derives the stable synthetic identity for a row position.
// It is stable across runs as long as the source keeps its row order.
func RowKeyFor(sourceID uuid.UUID, rowIndex int) string {
	return fmt.Sprintf("%s:%d", sourceID, rowIndex)
}

// RowKeyPrefix returns the prefix shared by all row keys of a source
func RowKeyPrefix(sourceID uuid.UUID) string {
	return sourceID.String() + ":"
}

// PlaceholderExternalID builds the generated identifier used when the
// mapped order-id column is absent or empty for a row.
func PlaceholderExternalID(sourceName string, rowIndex int) string {
	name := strings.ReplaceAll(strings.TrimSpace(sourceName), " ", "-")
	return fmt.Sprintf("%s-R%d", name, rowIndex)
}

// SetStatusManually applies a human status edit. Custom strings outside the
// canonical set are allowed here and only here.
func (o *Order) SetStatusManually(status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return shared.NewDomainError("INVALID_INPUT", "status is required")
	}
	now := time.Now()
	o.Status = OrderStatus(status)
	o.StatusManual = true
	o.StatusManualAt = &now
	o.Touch()
	return nil
}

// ClearManualStatus releases the manual override so automated sync may
// classify the status again on the next run
func (o *Order) ClearManualStatus() {
	o.StatusManual = false
	o.StatusManualAt = nil
	o.Touch()
}

// OrderFilterKey selects which identity the upsert filter uses
type OrderFilterKey int

const (
	// FilterByExternalID keys the write on (tenant, external_id)
	FilterByExternalID OrderFilterKey = iota
	// FilterByRowKey keys the write on (tenant, row_key)
	FilterByRowKey
)

// OrderUpsert is one element of a run's batched write
type OrderUpsert struct {
	Order *Order
	Key   OrderFilterKey
	// MatchID pins the update to a record the run already resolved. Without
	// it a record matched by its old identity would be missed by the filter
	// and duplicated when its identity columns change.
	MatchID *uuid.UUID
	// SkipStatus strips the status field from the update payload because the
	// matched record carries a manual override
	SkipStatus bool
}

// OrderListFilter defines list criteria for reconciled orders
type OrderListFilter struct {
	SourceID *uuid.UUID
	Status   *OrderStatus
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// OrderRepository defines persistence for canonical orders
type OrderRepository interface {
	// Save creates or updates a single order
	Save(ctx context.Context, order *Order) error

	// FindByIDForTenant finds an order by ID scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindAllForTenant lists orders with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]Order, int64, error)

	// FindByRowKeyPrefix loads all orders whose row key belongs to a source
	FindByRowKeyPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]Order, error)

	// FindByExternalIDs loads orders matching any of the given external IDs,
	// tenant-wide
	FindByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []string) ([]Order, error)

	// UpsertBatch executes a run's accumulated writes in one transaction:
	// update the record matching each upsert's filter, insert when absent.
	// Returns inserted and updated counts.
	UpsertBatch(ctx context.Context, batch []OrderUpsert) (inserted, updated int, err error)
}
