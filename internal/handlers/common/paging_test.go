package common

import (
	"net/url"
	"testing"
)

func TestParsePaging(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
		wantErr    bool
	}{
		{"", 0, 0, false},
		{"page=3&page_size=25", 3, 25, false},
		{"page=2&per_page=5", 2, 5, false},
		{"page_size=7&per_page=5", 0, 7, false},
		{"page=abc", 0, 0, true},
		{"per_page=-1", 0, 0, true},
		{"page_size=1.5", 0, 0, true},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", tt.query, err)
		}
		page, size, err := ParsePaging(q)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (page != tt.page || size != tt.size) {
			t.Errorf("%q: got page=%d size=%d, want %d %d", tt.query, page, size, tt.page, tt.size)
		}
	}
}
