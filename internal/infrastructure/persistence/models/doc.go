// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: shared columns (id, timestamps, version, team)
// - stock.go: purchase lots and stock batches
// - sale.go: sale transactions, their lines and legacy single-line sales
// - registry.go: the model list used by AutoMigrate in tests and the sqlite driver
package models
