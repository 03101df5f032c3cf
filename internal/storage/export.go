package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/anchorlight/anchorlight/pkg/types"
)

// exportEnvelope is the import/export wire format. Versioned so older
// exports keep importing after schema changes.
type exportEnvelope struct {
	Version   string          `json:"version"`
	Fragments []*types.Record `json:"fragments"`
}

// ExportJSON writes every stored record to w as a versioned JSON envelope.
func (s *SQLiteStorage) ExportJSON(ctx context.Context, w io.Writer) error {
	recs, err := s.ListFragments(ctx)
	if err != nil {
		return err
	}
	env := exportEnvelope{Version: CurrentSchemaVersion, Fragments: recs}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// ImportJSON reads an export envelope from r and saves every record in it.
// Records with an existing ID are overwritten; invalid records abort the
// import with the count of records already applied.
func (s *SQLiteStorage) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var env exportEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return 0, fmt.Errorf("failed to decode import: %w", err)
	}
	imported := 0
	for _, rec := range env.Fragments {
		if err := s.SaveFragment(ctx, rec); err != nil {
			return imported, fmt.Errorf("failed to import fragment %s: %w", rec.ID, err)
		}
		imported++
	}
	return imported, nil
}
