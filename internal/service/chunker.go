package service

import (
	"strings"

	"github.com/studyloop/mentor/internal/domain"
)

// ChunkConfig controls how extracted text is split into fragments.
type ChunkConfig struct {
	MaxChars  int
	Overlap   int
	MaxChunks int
}

// DefaultChunkConfig provides sane defaults for study documents.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:  900,
		Overlap:   150,
		MaxChunks: 100,
	}
}

// Chunk splits text into overlapping fragments of at most MaxChars runes.
// Consecutive fragments share Overlap runes so content straddling a boundary
// appears whole in at least one fragment. The boolean reports whether the
// MaxChunks cap truncated the tail of the text.
//
// Overlap must be smaller than MaxChars: with a non-positive net advance the
// cursor would never move, so that is a configuration error rather than a
// chunking outcome.
func Chunk(text string, cfg ChunkConfig) ([]string, bool, error) {
	if cfg.MaxChars <= 0 || cfg.Overlap < 0 || cfg.MaxChars-cfg.Overlap <= 0 {
		return nil, false, domain.ErrInvalidChunkConfig
	}
	if text == "" {
		return nil, false, nil
	}

	runes := []rune(text)
	length := len(runes)

	var chunks []string
	start := 0
	for start < length {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			return chunks, true, nil
		}

		end := start + cfg.MaxChars
		if end > length {
			end = length
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		start = end - cfg.Overlap
		if start < 0 {
			start = 0
		}
		// The final window ends at length; overlap would otherwise pull the
		// cursor back and loop over the tail forever.
		if end >= length {
			break
		}
	}

	return chunks, false, nil
}
