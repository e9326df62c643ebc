// Package models contains GORM persistence models for the billing tables.
// Domain aggregates carry no GORM tags; each model converts to and from its
// aggregate with ToDomain and FromDomain, and repositories only ever hand
// domain values back to callers.
package models
