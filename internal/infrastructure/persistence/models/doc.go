// Package models contains the GORM persistence models backing the domain
// entities. Keeping them apart from the domain layer keeps ORM tags and
// column mappings out of the entities themselves.
//
// Layout:
//   - base.go: BaseModel and TenantModel embedded by every table model
//   - sheetsync.go: SheetSourceModel, OrderModel and SyncLockModel with
//     their ToDomain/FromDomain mappers
//
// Repositories convert at the boundary: domain in, model down, domain out.
// JSON-typed columns (detected schema, raw row fields) marshal in the
// mappers so the models stay plain structs.
package models
