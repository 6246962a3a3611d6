package span

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r(from, to uint32) Range { return Range{From: from, To: to} }

func TestClip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Range
		want Range
	}{
		{"inside", r(0, 10), r(2, 5), r(2, 5)},
		{"overlap left", r(5, 10), r(0, 7), r(5, 7)},
		{"overlap right", r(5, 10), r(8, 20), r(8, 10)},
		{"covering", r(5, 10), r(0, 20), r(5, 10)},
		{"disjoint", r(5, 10), r(12, 20), r(12, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.a.Clip(tt.b))
		})
	}
	assert.True(t, r(5, 10).Clip(r(12, 20)).Empty())
}

func TestSubtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Range
		want []Range
	}{
		{"middle", r(0, 10), r(3, 6), []Range{r(0, 3), r(6, 10)}},
		{"prefix", r(0, 10), r(0, 4), []Range{r(4, 10)}},
		{"suffix", r(0, 10), r(7, 12), []Range{r(0, 7)}},
		{"disjoint", r(0, 10), r(20, 30), []Range{r(0, 10)}},
		{"touching", r(0, 10), r(10, 12), []Range{r(0, 10)}},
		{"covering", r(3, 6), r(0, 10), []Range{}},
		{"exact", r(3, 6), r(3, 6), []Range{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.a.Subtract(tt.b)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubtractAll(t *testing.T) {
	t.Parallel()

	whole := r(0, 100)

	t.Run("nothing to subtract", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []Range{whole}, SubtractAll(whole, nil))
	})

	t.Run("self", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, SubtractAll(whole, []Range{whole}))
	})

	t.Run("order independent", func(t *testing.T) {
		t.Parallel()
		holes := []Range{r(10, 20), r(50, 60), r(15, 55)}
		reversed := []Range{r(15, 55), r(50, 60), r(10, 20)}
		want := []Range{r(0, 10), r(60, 100)}
		assert.Equal(t, want, SubtractAll(whole, holes))
		assert.Equal(t, want, SubtractAll(whole, reversed))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		holes := []Range{r(10, 20), r(30, 40), r(90, 100)}
		once := SubtractAll(whole, holes)
		var twice []Range
		for _, piece := range once {
			twice = append(twice, SubtractAll(piece, holes)...)
		}
		assert.Equal(t, once, twice)
		assert.Equal(t, []Range{r(0, 10), r(20, 30), r(40, 90)}, once)
	})

	t.Run("disjoint and contained", func(t *testing.T) {
		t.Parallel()
		got := SubtractAll(r(5, 50), []Range{r(0, 8), r(20, 21), r(45, 70)})
		require.Len(t, got, 2)
		for i, piece := range got {
			assert.True(t, r(5, 50).Covers(piece))
			if i > 0 {
				assert.True(t, got[i-1].Before(piece))
			}
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Normalize([]Range{r(30, 40), r(0, 5), r(5, 10), r(8, 12), r(20, 20)})
	assert.Equal(t, []Range{r(0, 12), r(30, 40)}, got)
}

func TestNew(t *testing.T) {
	t.Parallel()

	got, err := New(3, 9)
	require.NoError(t, err)
	assert.Equal(t, r(3, 9), got)

	_, err = New(-1, 4)
	assert.Error(t, err)

	_, err = New(0, math.MaxInt64)
	assert.Error(t, err)

	_, err = Offset(-5)
	assert.Error(t, err)
}
