// Package storage persists calibration records in a SQL database.
package storage

import (
	"context"
	"errors"

	"github.com/ziltek/calcombine/internal/models"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Store defines calibration record persistence. List returns records in insertion order.
type Store interface {
	// ReplaceAll swaps the whole table for records in one transaction.
	ReplaceAll(ctx context.Context, records []models.Record) error
	// Append inserts records after the existing ones. A record whose ID already exists
	// is updated in place.
	Append(ctx context.Context, records []models.Record) error

	List(ctx context.Context) ([]models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Add(ctx context.Context, rec *models.Record) error
	Update(ctx context.Context, rec *models.Record) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	Close() error
}
