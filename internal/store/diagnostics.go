package store

import (
	"fmt"
)

// --- Diagnostic operations ---

func insertDiagnosticTx(ex execer, d *Diagnostic) (int64, error) {
	blob, err := encodeActions(d.Actions)
	if err != nil {
		return 0, err
	}
	res, err := ex.Exec(
		`INSERT INTO diagnostics (file_id, start_byte, end_byte, start_line, start_col, severity, code, message, actions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.StartByte, d.EndByte, d.StartLine, d.StartCol, d.Severity, d.Code, d.Message, blob,
	)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

// DiagnosticsByFile returns a file's diagnostics in source order.
func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	return s.queryDiagnostics(
		"SELECT "+diagnosticColumns+" FROM diagnostics WHERE file_id = ? ORDER BY start_byte, id", fileID)
}

// DiagnosticsByCode returns the cached diagnostics with code across all
// files.
func (s *Store) DiagnosticsByCode(code string) ([]*Diagnostic, error) {
	return s.queryDiagnostics(
		"SELECT "+diagnosticColumns+" FROM diagnostics WHERE code = ? ORDER BY file_id, start_byte, id", code)
}

// CountBySeverity tallies cached diagnostics across all files.
func (s *Store) CountBySeverity() (map[string]int, error) {
	rows, err := s.db.Query("SELECT severity, COUNT(*) FROM diagnostics GROUP BY severity")
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		out[sev] = n
	}
	return out, rows.Err()
}

const diagnosticColumns = "id, file_id, start_byte, end_byte, start_line, start_col, severity, code, message, actions"

func (s *Store) queryDiagnostics(q string, args ...any) ([]*Diagnostic, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()
	var out []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		var blob []byte
		if err := rows.Scan(&d.ID, &d.FileID, &d.StartByte, &d.EndByte, &d.StartLine, &d.StartCol,
			&d.Severity, &d.Code, &d.Message, &blob); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if d.Actions, err = decodeActions(blob); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CachedResult returns the file and its diagnostics when the stored hash
// equals hash, or nil when the cache cannot be used.
func (s *Store) CachedResult(path, hash string) (*Result, error) {
	f, err := s.FileByPath(path)
	if err != nil || f == nil || f.Hash != hash {
		return nil, err
	}
	diags, err := s.DiagnosticsByFile(f.ID)
	if err != nil {
		return nil, err
	}
	r := &Result{File: *f}
	for _, d := range diags {
		r.Diagnostics = append(r.Diagnostics, *d)
	}
	return r, nil
}
