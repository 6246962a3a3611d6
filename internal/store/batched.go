package store

import "sync"

// BatchedStore buffers lint results from parallel workers. Nothing
// reaches SQLite until CommitBatch, so a cancelled run leaves the cache
// untouched.
type BatchedStore struct {
	mu      sync.Mutex
	results []Result
}

func NewBatchedStore() *BatchedStore {
	return &BatchedStore{}
}

// SaveResult buffers r. Safe for concurrent use.
func (b *BatchedStore) SaveResult(r *Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, *r)
	return nil
}

// Len reports how many results are buffered.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.results)
}

// Results returns a copy of the buffered results.
func (b *BatchedStore) Results() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Result, len(b.results))
	copy(out, b.results)
	return out
}
