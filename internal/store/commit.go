package store

import (
	"database/sql"
	"fmt"
)

// SaveResult replaces the cached file and its diagnostics in one
// transaction.
func (s *Store) SaveResult(r *Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save result: begin: %w", err)
	}
	defer tx.Rollback()
	if err := saveResultTx(tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// CommitBatch writes every buffered result within a single transaction.
// A file's previous diagnostics are dropped before its new ones are
// inserted, and diagnostic file IDs are rewritten to the file row.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range batch.Results() {
		if err := saveResultTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	return tx.Commit()
}

func saveResultTx(tx *sql.Tx, r *Result) error {
	if err := upsertFileTx(tx, &r.File); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM diagnostics WHERE file_id = ?", r.File.ID); err != nil {
		return fmt.Errorf("clear diagnostics %s: %w", r.File.Path, err)
	}
	for i := range r.Diagnostics {
		d := &r.Diagnostics[i]
		d.FileID = r.File.ID
		if _, err := insertDiagnosticTx(tx, d); err != nil {
			return fmt.Errorf("%s: %w", r.File.Path, err)
		}
	}
	return nil
}
