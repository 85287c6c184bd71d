// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// of ORM concerns.
//
// Structure:
//   - base.go: shared columns (BaseModel, AggregateModel)
//   - identity.go: users and the buyer, seller and admin profiles
//   - auction.go: products and the bid ledger
//
// The schema itself is owned by the SQL files under migrations/.
package models
