package store

import (
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jward/reflector/internal/lint"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

// encodeActions packs actions into a BLOB. No actions store NULL.
func encodeActions(actions []lint.Action) ([]byte, error) {
	if len(actions) == 0 {
		return nil, nil
	}
	b, err := msgpack.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}
	return b, nil
}

func decodeActions(b []byte) ([]lint.Action, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var actions []lint.Action
	if err := msgpack.Unmarshal(b, &actions); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	return actions, nil
}
