package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func qmap(pairs map[int]string) map[int]decimal.Decimal {
	m := make(map[int]decimal.Decimal, len(pairs))
	for id, q := range pairs {
		m[id] = decimal.RequireFromString(q)
	}
	return m
}

func TestDiffQuantities(t *testing.T) {
	tests := []struct {
		name string
		old  map[int]string
		new  map[int]string
		want map[int]string
	}{
		{
			name: "identical order is a no-op",
			old:  map[int]string{1: "2", 2: "1"},
			new:  map[int]string{1: "2", 2: "1"},
			want: map[int]string{},
		},
		{
			name: "increased quantity",
			old:  map[int]string{1: "2"},
			new:  map[int]string{1: "5"},
			want: map[int]string{1: "3"},
		},
		{
			name: "decreased quantity",
			old:  map[int]string{1: "5"},
			new:  map[int]string{1: "2"},
			want: map[int]string{1: "-3"},
		},
		{
			name: "added item",
			old:  map[int]string{1: "1"},
			new:  map[int]string{1: "1", 2: "4"},
			want: map[int]string{2: "4"},
		},
		{
			name: "removed item",
			old:  map[int]string{1: "1", 2: "4"},
			new:  map[int]string{1: "1"},
			want: map[int]string{2: "-4"},
		},
		{
			name: "mixed edit",
			old:  map[int]string{1: "2", 2: "3"},
			new:  map[int]string{2: "1", 3: "2"},
			want: map[int]string{1: "-2", 2: "-2", 3: "2"},
		},
		{
			name: "both empty",
			old:  map[int]string{},
			new:  map[int]string{},
			want: map[int]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diffQuantities(qmap(tt.old), qmap(tt.new))
			want := qmap(tt.want)
			if len(got) != len(want) {
				t.Fatalf("diff has %d entries, want %d: %v", len(got), len(want), got)
			}
			for id, w := range want {
				g, ok := got[id]
				if !ok {
					t.Fatalf("missing diff entry for item %d", id)
				}
				if !g.Equal(w) {
					t.Fatalf("diff[%d] = %s, want %s", id, g, w)
				}
			}
		})
	}
}
