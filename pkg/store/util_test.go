package store

import (
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{name: "empty", total: 0, chunkSize: 10, want: nil},
		{name: "single chunk", total: 5, chunkSize: 10, want: [][2]int{{0, 5}}},
		{name: "exact chunks", total: 10, chunkSize: 5, want: [][2]int{{0, 5}, {5, 10}}},
		{name: "remainder", total: 7, chunkSize: 3, want: [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{name: "zero chunk size uses total", total: 4, chunkSize: 0, want: [][2]int{{0, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tt.total, tt.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "drops empties", in: []string{"", "a", ""}, want: []string{"a"}},
		{name: "keeps first occurrence order", in: []string{"b", "a", "b", "a"}, want: []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupeStrings(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
