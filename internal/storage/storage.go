package storage

import (
	"context"
	"errors"
	"io"

	"github.com/anchorlight/anchorlight/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate record
	ErrAlreadyExists = errors.New("already exists")
)

// Storage defines the interface for persisting highlight records
type Storage interface {
	// Record operations
	SaveFragment(ctx context.Context, rec *types.Record) error
	GetFragment(ctx context.Context, id string) (*types.Record, error)
	ListFragmentsByPage(ctx context.Context, pageURL string) ([]*types.Record, error)
	ListFragments(ctx context.Context) ([]*types.Record, error)
	DeleteFragment(ctx context.Context, id string) error
	CountFragments(ctx context.Context) (int, error)

	// Bulk operations for the popup's import/export
	ExportJSON(ctx context.Context, w io.Writer) error
	ImportJSON(ctx context.Context, r io.Reader) (imported int, err error)

	// Database operations
	Close() error
}
