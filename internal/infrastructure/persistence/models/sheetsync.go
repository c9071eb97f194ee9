package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// SheetSourceModel is the persistence model for sheetsync.SheetSource
type SheetSourceModel struct {
	TenantModel
	Name          string `gorm:"size:255;not null"`
	SpreadsheetID string `gorm:"size:255;not null"`
	SheetName     string `gorm:"size:255"`
	Active        bool   `gorm:"not null;default:true"`
	LastSyncedAt  *time.Time
	// DetectedHeadersJSON and DetectedMappingJSON cache the last run's schema
	// inference as JSON documents
	DetectedHeadersJSON string `gorm:"column:detected_headers;type:jsonb;default:'[]'"`
	DetectedMappingJSON string `gorm:"column:detected_mapping;type:jsonb;default:'{}'"`
}

// TableName specifies the table name
func (SheetSourceModel) TableName() string {
	return "sheet_sources"
}

// ToDomain converts the model to a domain SheetSource
func (m *SheetSourceModel) ToDomain() *sheetsync.SheetSource {
	source := &sheetsync.SheetSource{
		TenantEntity: m.TenantModel.ToDomain(),
		Name:         m.Name,
		Location: sheetsync.SheetLocation{
			SpreadsheetID: m.SpreadsheetID,
			SheetName:     m.SheetName,
		},
		Active:       m.Active,
		LastSyncedAt: m.LastSyncedAt,
	}
	if m.DetectedHeadersJSON != "" && m.DetectedHeadersJSON != "[]" {
		var headers []string
		if err := json.Unmarshal([]byte(m.DetectedHeadersJSON), &headers); err == nil {
			source.DetectedHeaders = headers
		}
	}
	if m.DetectedMappingJSON != "" && m.DetectedMappingJSON != "{}" {
		var mapping sheetsync.ColumnMapping
		if err := json.Unmarshal([]byte(m.DetectedMappingJSON), &mapping); err == nil {
			source.DetectedMapping = mapping
		}
	}
	return source
}

// SheetSourceModelFromDomain converts a domain SheetSource to a model
func SheetSourceModelFromDomain(source *sheetsync.SheetSource) *SheetSourceModel {
	m := &SheetSourceModel{
		Name:          source.Name,
		SpreadsheetID: source.Location.SpreadsheetID,
		SheetName:     source.Location.SheetName,
		Active:        source.Active,
		LastSyncedAt:  source.LastSyncedAt,
	}
	m.FromDomainTenantEntity(source.TenantEntity)

	m.DetectedHeadersJSON = "[]"
	if len(source.DetectedHeaders) > 0 {
		if b, err := json.Marshal(source.DetectedHeaders); err == nil {
			m.DetectedHeadersJSON = string(b)
		}
	}
	m.DetectedMappingJSON = "{}"
	if len(source.DetectedMapping) > 0 {
		if b, err := json.Marshal(source.DetectedMapping); err == nil {
			m.DetectedMappingJSON = string(b)
		}
	}
	return m
}

// OrderModel is the persistence model for sheetsync.Order
type OrderModel struct {
	TenantModel
	SourceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExternalID     string          `gorm:"size:255;not null;index"`
	RowKey         string          `gorm:"size:255;not null;uniqueIndex"`
	ClientName     string          `gorm:"size:255"`
	ClientPhone    string          `gorm:"size:64"`
	City           string          `gorm:"size:255"`
	Address        string          `gorm:"size:512"`
	Product        string          `gorm:"size:512"`
	Quantity       int             `gorm:"not null;default:0"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OrderDate      time.Time       `gorm:"not null"`
	Status         string          `gorm:"size:64;not null"`
	StatusManual   bool            `gorm:"not null;default:false"`
	StatusManualAt *time.Time
	RawFieldsJSON  string `gorm:"column:raw_fields;type:jsonb;default:'{}'"`
	Notes          string `gorm:"type:text"`
}

// TableName specifies the table name
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to a domain Order
func (m *OrderModel) ToDomain() *sheetsync.Order {
	order := &sheetsync.Order{
		TenantEntity:   m.TenantModel.ToDomain(),
		SourceID:       m.SourceID,
		ExternalID:     m.ExternalID,
		RowKey:         m.RowKey,
		ClientName:     m.ClientName,
		ClientPhone:    m.ClientPhone,
		City:           m.City,
		Address:        m.Address,
		Product:        m.Product,
		Quantity:       m.Quantity,
		Price:          m.Price,
		OrderDate:      m.OrderDate,
		Status:         sheetsync.OrderStatus(m.Status),
		StatusManual:   m.StatusManual,
		StatusManualAt: m.StatusManualAt,
		Notes:          m.Notes,
	}
	if m.RawFieldsJSON != "" && m.RawFieldsJSON != "{}" {
		var raw map[string]string
		if err := json.Unmarshal([]byte(m.RawFieldsJSON), &raw); err == nil {
			order.RawFields = raw
		}
	}
	return order
}

// OrderModelFromDomain converts a domain Order to a model
func OrderModelFromDomain(order *sheetsync.Order) *OrderModel {
	m := &OrderModel{
		SourceID:       order.SourceID,
		ExternalID:     order.ExternalID,
		RowKey:         order.RowKey,
		ClientName:     order.ClientName,
		ClientPhone:    order.ClientPhone,
		City:           order.City,
		Address:        order.Address,
		Product:        order.Product,
		Quantity:       order.Quantity,
		Price:          order.Price,
		OrderDate:      order.OrderDate,
		Status:         string(order.Status),
		StatusManual:   order.StatusManual,
		StatusManualAt: order.StatusManualAt,
		Notes:          order.Notes,
	}
	m.FromDomainTenantEntity(order.TenantEntity)

	m.RawFieldsJSON = "{}"
	if len(order.RawFields) > 0 {
		if b, err := json.Marshal(order.RawFields); err == nil {
			m.RawFieldsJSON = string(b)
		}
	}
	return m
}

// SyncLockModel is the persistence model for sheetsync.SyncLock. The unique
// index on (tenant_id, source_id) is what makes Acquire atomic.
type SyncLockModel struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_locks_tenant_source"`
	SourceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_locks_tenant_source"`
	RunID     uuid.UUID `gorm:"type:uuid;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

// TableName specifies the table name
func (SyncLockModel) TableName() string {
	return "sync_locks"
}

// ToDomain converts the model to a domain SyncLock
func (m *SyncLockModel) ToDomain() *sheetsync.SyncLock {
	return &sheetsync.SyncLock{
		TenantEntity: shared.TenantEntity{
			BaseEntity: m.BaseModel.ToDomain(),
			TenantID:   m.TenantID,
		},
		SourceID:  m.SourceID,
		RunID:     m.RunID,
		ExpiresAt: m.ExpiresAt,
	}
}

// SyncLockModelFromDomain converts a domain SyncLock to a model
func SyncLockModelFromDomain(lock *sheetsync.SyncLock) *SyncLockModel {
	m := &SyncLockModel{
		TenantID:  lock.TenantID,
		SourceID:  lock.SourceID,
		RunID:     lock.RunID,
		ExpiresAt: lock.ExpiresAt,
	}
	m.FromDomainBaseEntity(lock.BaseEntity)
	return m
}
