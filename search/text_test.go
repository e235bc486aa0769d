package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	got := tokenizeAndFilter("The Java developer, with SQL!")
	assert.Equal(t, []string{"java", "developer", "sql"}, got)
}

func TestMatchedTerms(t *testing.T) {
	tests := []struct {
		name     string
		document string
		query    string
		want     []string
	}{
		{name: "partial match", document: "Java 8. Multi-choice test of Java knowledge", query: "java and python", want: []string{"java"}},
		{name: "repeats collapsed", document: "sales sales", query: "sales, Sales", want: []string{"sales"}},
		{name: "only stop words", document: "the a an", query: "the", want: nil},
		{name: "no overlap", document: "numerical reasoning", query: "personality", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedTerms(tt.document, tt.query))
		})
	}
}
