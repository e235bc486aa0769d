package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "url", content: "https://example.com/products/verify-numerical/"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("https://example.com/a")
	id2 := IDFromContent("https://example.com/b")
	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content: %d", id1)
	}
}

func TestID_StringRoundTrip(t *testing.T) {
	id := IDFromContent("https://example.com/a")
	s := id.String()
	if len(s) != 16 {
		t.Fatalf("String() = %q, want 16 hex digits", s)
	}
	got, err := ParseID(s)
	if err != nil {
		t.Fatalf("ParseID(%q) error = %v", s, err)
	}
	if got != id {
		t.Errorf("ParseID(%q) = %d, want %d", s, got, id)
	}
}

func TestParseID_Invalid(t *testing.T) {
	for _, s := range []string{"", "zz", "12zz", "1234567890abcdef0"} {
		if _, err := ParseID(s); err == nil {
			t.Errorf("ParseID(%q) expected error", s)
		}
	}
}

func TestParseSupport(t *testing.T) {
	tests := []struct {
		in      string
		want    Support
		wantErr bool
	}{
		{in: "Yes", want: SupportYes},
		{in: " yes ", want: SupportYes},
		{in: "No", want: SupportNo},
		{in: "", want: SupportNo},
		{in: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSupport(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSupport(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSupport(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCatalogRecord_Clone(t *testing.T) {
	orig := &CatalogRecord{Name: "n", TestTypes: []string{"a"}, Vector: []float32{1, 2}}
	c := orig.Clone()
	c.TestTypes[0] = "b"
	c.Vector[0] = 9
	if orig.TestTypes[0] != "a" || orig.Vector[0] != 1 {
		t.Error("Clone() shares slices with the original")
	}
	var nilRec *CatalogRecord
	if nilRec.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}
