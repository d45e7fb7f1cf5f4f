// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// domain counterpart with ToDomain and FromDomain.
//
// Structure:
// - base.go: shared columns (BaseModel, OwnedModel)
// - identity.go: users
// - catalog.go: products
// - sales.go: sales and sale_items
package models
