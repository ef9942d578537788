//go:build e2e

package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calculusNotes = `Derivatives measure the instantaneous rate of change of a function.
The derivative of a function at a point is the slope of the tangent line.
Integrals accumulate change: the definite integral of a rate of change
gives the total change of the function over an interval.`

type sourceDTO struct {
	SourceID string  `json:"source_id"`
	FileName string  `json:"file_name"`
	Type     string  `json:"type"`
	Index    int     `json:"chunk_index"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type queryDTO struct {
	Question     string      `json:"question"`
	Answer       string      `json:"answer"`
	Origin       string      `json:"origin"`
	OriginDetail string      `json:"origin_detail"`
	Sources      []sourceDTO `json:"sources"`
}

func TestE2E_Health(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	resp, err := env.Get("/health")
	require.NoError(t, err)

	var health map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, "ok", health["status"])
}

func TestE2E_IngestAndQuery(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	env.WriteDoc("calculus.md", calculusNotes)
	env.WriteDoc("ignored.csv", "not,a,supported,type")

	t.Run("list documents on disk", func(t *testing.T) {
		resp, err := env.Get("/documents")
		require.NoError(t, err)

		var listing struct {
			Documents []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"documents"`
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &listing))
		assert.Equal(t, 1, listing.Count)
		assert.Equal(t, "calculus.md", listing.Documents[0].Name)
	})

	t.Run("ingest the docs directory", func(t *testing.T) {
		resp, err := env.Post("/ingest", map[string]string{})
		require.NoError(t, err)

		var result struct {
			IndexedFragments int `json:"indexed_fragments"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Greater(t, result.IndexedFragments, 0)
	})

	t.Run("indexed sources are listed", func(t *testing.T) {
		resp, err := env.Get("/documents/indexed")
		require.NoError(t, err)

		var listing struct {
			Sources []struct {
				FileName  string `json:"file_name"`
				Fragments int    `json:"fragments"`
			} `json:"sources"`
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &listing))
		require.Equal(t, 1, listing.Count)
		assert.Equal(t, "calculus.md", listing.Sources[0].FileName)
		assert.Greater(t, listing.Sources[0].Fragments, 0)
	})

	t.Run("covered question is answered from the material", func(t *testing.T) {
		resp, err := env.Post("/query", map[string]string{
			"question": "the instantaneous rate of change of a function",
		})
		require.NoError(t, err)

		var result queryDTO
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, "retrieval", result.Origin)
		assert.Contains(t, result.Answer, "Grounded")
		require.NotEmpty(t, result.Sources)
		assert.Equal(t, "calculus.md", result.Sources[0].FileName)
		assert.Greater(t, result.Sources[0].Score, 0.0)
	})

	t.Run("uncovered question falls back to the model", func(t *testing.T) {
		resp, err := env.Post("/query", map[string]string{
			"question": "ancient roman military logistics",
		})
		require.NoError(t, err)

		var result queryDTO
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, "model", result.Origin)
		assert.Contains(t, result.Answer, "Generic")
		assert.Empty(t, result.Sources)
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		_, err := env.Post("/query", map[string]string{"question": "  "})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})
}

func TestE2E_UploadAndArchive(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	content := []byte(calculusNotes)

	resp, err := env.Upload("/documents/upload", "uploaded-notes.txt", content)
	require.NoError(t, err)

	var result struct {
		FileName         string `json:"file_name"`
		IndexedFragments int    `json:"indexed_fragments"`
		ArchiveKey       string `json:"archive_key"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "uploaded-notes.txt", result.FileName)
	assert.Greater(t, result.IndexedFragments, 0)
	require.NotEmpty(t, result.ArchiveKey)

	archived, err := env.S3Client.FetchArchived(env.Ctx, result.ArchiveKey)
	require.NoError(t, err)
	assert.Equal(t, content, archived)

	t.Run("upload is saved into the docs directory", func(t *testing.T) {
		saved, err := os.ReadFile(filepath.Join(env.DocsDir, "uploaded-notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, content, saved)

		listResp, err := env.Get("/documents")
		require.NoError(t, err)

		var list struct {
			Documents []struct {
				Name string `json:"name"`
			} `json:"documents"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &list))

		names := make([]string, len(list.Documents))
		for i, d := range list.Documents {
			names[i] = d.Name
		}
		assert.Contains(t, names, "uploaded-notes.txt")
	})

	t.Run("uploaded content is queryable", func(t *testing.T) {
		queryResp, err := env.Post("/query", map[string]string{
			"question": "the instantaneous rate of change of a function",
		})
		require.NoError(t, err)

		var query queryDTO
		require.NoError(t, json.Unmarshal(queryResp.Data, &query))
		assert.Equal(t, "retrieval", query.Origin)
	})

	t.Run("unsupported upload is rejected", func(t *testing.T) {
		_, err := env.Upload("/documents/upload", "archive.zip", []byte("PK"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})
}

func TestE2E_StudyPlan(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	env.WriteDoc("calculus.md", calculusNotes)
	_, err := env.Post("/ingest", map[string]string{})
	require.NoError(t, err)

	resp, err := env.Post("/plans", map[string]string{
		"topic":      "the rate of change of a function",
		"start_date": "2026-03-01",
		"email":      "student@example.com",
	})
	require.NoError(t, err)

	var plan struct {
		Topic     string `json:"topic"`
		StartDate string `json:"start_date"`
		Origin    string `json:"origin"`
		Sessions  []struct {
			Kind        string `json:"kind"`
			Date        string `json:"date"`
			Description string `json:"description"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &plan))

	assert.Equal(t, "retrieval", plan.Origin)
	assert.Equal(t, "2026-03-01", plan.StartDate)
	require.Len(t, plan.Sessions, 4)
	assert.Equal(t, "D+1", plan.Sessions[0].Kind)
	assert.Equal(t, "2026-03-02", plan.Sessions[0].Date)
	assert.Equal(t, "D+30", plan.Sessions[3].Kind)
	assert.Equal(t, "2026-03-31", plan.Sessions[3].Date)

	select {
	case payload := <-env.WebhookCalls:
		var notification struct {
			Event string `json:"event"`
			Email string `json:"email"`
			Plan  struct {
				Topic string `json:"topic"`
			} `json:"plan"`
		}
		require.NoError(t, json.Unmarshal(payload, &notification))
		assert.Equal(t, "plan.created", notification.Event)
		assert.Equal(t, "student@example.com", notification.Email)
		assert.Equal(t, "the rate of change of a function", notification.Plan.Topic)
	case <-time.After(5 * time.Second):
		t.Fatal("plan webhook was not called")
	}
}
