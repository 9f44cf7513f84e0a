package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPage(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		total    int
		returned int
		want     *int
	}{
		{"everything in first page", Params{Page: 0, Take: 10}, 5, 5, nil},
		{"more pages", Params{Page: 0, Take: 2}, 5, 2, intPtr(1)},
		{"middle page", Params{Page: 1, Take: 2}, 5, 2, intPtr(2)},
		{"offset past total", Params{Page: 3, Take: 2}, 5, 0, nil},
		{"offset equals total", Params{Page: 0, Skip: 5, Take: 2}, 5, 0, nil},
		{"skip shifts offset", Params{Page: 0, Skip: 1, Take: 2}, 5, 2, intPtr(1)},
		{"empty listing", Params{Take: 2}, 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPage(tt.params, tt.total, tt.returned))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{}.Offset())
	assert.Equal(t, 7, Params{Page: 2, Skip: 1, Take: 3}.Offset())
}

func TestWithDefaults(t *testing.T) {
	p := Params{Page: -1, Skip: -4}.WithDefaults(50)
	assert.Equal(t, Params{Page: 0, Skip: 0, Take: 50}, p)
	assert.Equal(t, 20, Params{Take: 20}.WithDefaults(50).Take)
}

// Walking nextPage over a sorted slice must yield every element exactly once.
func TestRoundTrip_NoGapNoOverlap(t *testing.T) {
	req := require.New(t)
	all := []int{1, 2, 3, 4, 5, 6, 7}

	fetch := func(p Params) Page[int] {
		start := min(p.Offset(), len(all))
		end := min(start+p.Take, len(all))
		return New(all[start:end], p, len(all))
	}

	var got []int
	p := Params{Take: 3}
	for i := 0; i < 10; i++ {
		page := fetch(p)
		got = append(got, page.Data...)
		if page.NextPage == nil {
			break
		}
		p.Page = *page.NextPage
	}
	req.Equal(all, got)
}

func TestNew_NilData(t *testing.T) {
	page := New[string](nil, Params{Take: 5}, 0)
	assert.NotNil(t, page.Data)
	assert.Nil(t, page.NextPage)
}

func intPtr(v int) *int { return &v }
