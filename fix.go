package reflector

import (
	"context"
	"fmt"
	"slices"

	"github.com/jward/reflector/internal/lint"
)

// maxFixPasses bounds Fix when every applied action exposes another.
const maxFixPasses = 32

// FixResult is the outcome of Fix.
type FixResult struct {
	Source []byte `json:"-"`
	// Applied holds the label of every action taken, in order.
	Applied []string `json:"applied"`
	// Remaining are the diagnostics of the final source.
	Remaining []Finding `json:"remaining"`
}

// Fix repeatedly applies the first action of the first fixable
// diagnostic and re-analyzes, until nothing fixable remains. codes
// restricts which diagnostics count as fixable; empty means any.
func (e *Engine) Fix(ctx context.Context, path string, src []byte, codes []string) (*FixResult, error) {
	buf := &lint.Buffer{Source: slices.Clone(src)}
	res := &FixResult{}
	skipped := make(map[string]bool)

	for range maxFixPasses {
		a, err := e.Analyze(ctx, path, buf.Source)
		if err != nil {
			return nil, err
		}
		applied, label, err := fixOne(a, buf, codes, skipped)
		if err != nil || !applied {
			res.Remaining = a.Findings()
		}
		a.Close()
		if err != nil {
			return nil, err
		}
		if !applied {
			res.Source = buf.Source
			return res, nil
		}
		e.logger.Debug("fix.apply", "path", path, "action", label)
		res.Applied = append(res.Applied, label)
	}

	a, err := e.Analyze(ctx, path, buf.Source)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	res.Source = buf.Source
	res.Remaining = a.Findings()
	return res, nil
}

// fixOne applies at most one action. Diagnostics whose action no longer
// resolves are remembered in skipped and passed over.
func fixOne(a *Analysis, buf *lint.Buffer, codes []string, skipped map[string]bool) (bool, string, error) {
	for _, d := range a.Diagnostics {
		if len(d.Actions) == 0 || (len(codes) > 0 && !slices.Contains(codes, d.Code)) {
			continue
		}
		key := fmt.Sprintf("%s:%s:%s", d.Code, a.Snapshot.Doc.Source[d.From:d.To], d.Actions[0].Label)
		if skipped[key] {
			continue
		}
		ok, err := a.ApplyAction(buf, d, 0)
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, d.Actions[0].Label, nil
		}
		skipped[key] = true
	}
	return false, "", nil
}
