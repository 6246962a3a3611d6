package store

// ResultSink receives lint results. Store writes them immediately;
// BatchedStore buffers them for a single commit.
type ResultSink interface {
	SaveResult(r *Result) error
}

// Compile-time checks.
var (
	_ ResultSink = (*Store)(nil)
	_ ResultSink = (*BatchedStore)(nil)
)
