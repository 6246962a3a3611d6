package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// upsertFileTx inserts f or updates the row with the same path, and sets
// f.ID either way.
func upsertFileTx(ex execer, f *File) error {
	_, err := ex.Exec(
		`INSERT INTO files (path, language, hash, last_linted) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET language = excluded.language, hash = excluded.hash, last_linted = excluded.last_linted`,
		f.Path, f.Language, f.Hash, f.LastLinted,
	)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	if err := ex.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&f.ID); err != nil {
		return fmt.Errorf("upsert file %s: id: %w", f.Path, err)
	}
	return nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, last_linted FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastLinted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT id, path, language, hash, last_linted FROM files WHERE language = ? ORDER BY path", language)
}

// Files returns every cached file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT id, path, language, hash, last_linted FROM files ORDER BY path")
}

func (s *Store) queryFiles(q string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastLinted); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
