// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of
// ORM concerns.
//
// Structure:
// - base.go: BaseModel and AggregateModel (version column for optimistic locking)
// - trade.go: sales orders, return authorizations, item receipts, item fulfillments
// - ledger.go: blanket orders and their per-product ledger lines
// - revenue.go: revenue events and revenue plans
package models
