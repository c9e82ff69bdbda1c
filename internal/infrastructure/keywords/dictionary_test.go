package keywords

import (
	"reflect"
	"testing"
)

func TestNewDictionary(t *testing.T) {
	dict := NewDictionary()

	if dict == nil {
		t.Fatal("NewDictionary should not return nil")
	}
}

func TestDictionary_Keywords_NoMatch(t *testing.T) {
	dict := NewDictionary()

	if got := dict.Keywords("just take me home"); got != nil {
		t.Errorf("Expected no keywords, got %v", got)
	}
}

func TestDictionary_Keywords(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		expect []string
	}{
		{
			name:   "coffee maps to cafe",
			query:  "I want a quiet walk with good Coffee",
			expect: []string{"cafe"},
		},
		{
			name:   "scenic maps to park",
			query:  "something scenic",
			expect: []string{"park"},
		},
		{
			name:   "several rules in rule order",
			query:  "a bookstore, then a park and a latte",
			expect: []string{"cafe", "park", "book store"},
		},
		{
			name:   "same rule matched twice is listed once",
			query:  "cafe or coffee",
			expect: []string{"cafe"},
		},
		{
			name:   "japanese triggers",
			query:  "公園を通ってパン屋に寄りたい",
			expect: []string{"park", "bakery"},
		},
	}

	dict := NewDictionary()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dict.Keywords(tt.query)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("Keywords(%q) = %v, want %v", tt.query, got, tt.expect)
			}
		})
	}
}
