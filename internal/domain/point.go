package domain

// PointPayload is the metadata stored alongside each vector. This is the
// single versioned payload schema; readers must not fall back to legacy
// field names.
type PointPayload struct {
	Text       string     `json:"text"`
	SourceID   string     `json:"source_id"`
	SourceType SourceType `json:"source_type"`
	FileName   string     `json:"file_name"`
	Index      int        `json:"index"`
}

// EmbeddedPoint is one fragment embedded and ready for upsert. The ID is
// globally unique per upsert but deliberately not derived from
// (SourceID, Index): re-ingesting a document creates new points.
type EmbeddedPoint struct {
	ID      string
	Vector  []float32
	Payload PointPayload
}

// ScoredMatch is a nearest-neighbor hit for one query. Transient, never
// persisted. A nil Score means the store returned no similarity value.
type ScoredMatch struct {
	Text     string     `json:"text"`
	SourceID string     `json:"source_id"`
	FileName string     `json:"file_name,omitempty"`
	Type     SourceType `json:"type,omitempty"`
	Index    int        `json:"index"`
	Score    *float64   `json:"score,omitempty"`
}

// ScoreOrZero treats an absent score as zero similarity.
func (m ScoredMatch) ScoreOrZero() float64 {
	if m.Score == nil {
		return 0
	}
	return *m.Score
}

// RetrievalVerdict is the retrieval gate's decision for one query.
// AcceptedFragments is empty whenever UseRetrieved is false, and is always
// a subset of the texts in Matches.
type RetrievalVerdict struct {
	UseRetrieved      bool
	AcceptedFragments []string
	Matches           []ScoredMatch
}
