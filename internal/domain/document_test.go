package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceTypeForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected SourceType
	}{
		{"notes/algebra.pdf", SourceTypePDF},
		{"notes/Algebra.PDF", SourceTypePDF},
		{"scan.png", SourceTypeImage},
		{"scan.jpg", SourceTypeImage},
		{"scan.jpeg", SourceTypeImage},
		{"photo.webp", SourceTypeImage},
		{"summary.txt", SourceTypeText},
		{"summary.md", SourceTypeText},
		{"archive.zip", ""},
		{"noextension", ""},
	}

	for _, tt := range tests {
		got := SourceTypeForPath(tt.path)
		assert.Equal(t, tt.expected, got, tt.path)
		assert.Equal(t, tt.expected != "", got.IsValid(), tt.path)
	}
}

func TestSourceType_IsValid(t *testing.T) {
	assert.True(t, SourceTypePDF.IsValid())
	assert.True(t, SourceTypeImage.IsValid())
	assert.True(t, SourceTypeText.IsValid())
	assert.False(t, SourceType("video").IsValid())
}

func TestRawDocument_FileName(t *testing.T) {
	doc := RawDocument{Path: "data/documents/calculus.pdf"}
	assert.Equal(t, "calculus.pdf", doc.FileName())
}

func TestScoredMatch_ScoreOrZero(t *testing.T) {
	score := 0.72
	withScore := ScoredMatch{Score: &score}
	assert.Equal(t, 0.72, withScore.ScoreOrZero())

	withoutScore := ScoredMatch{}
	assert.Equal(t, 0.0, withoutScore.ScoreOrZero())
}
