// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - partner.go: Customer with its custom attributes
// - trade.go: Sales invoices and their items
// - tempcredit.go: Temp credit settings and policy records
package models
