// Package models defines the entity types and standard errors shared by the
// Guildhall bot, web front-end, and export tooling.
package models
