// Package models contains the gorm model definitions of the authorization store.
package models
