package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockAnalyzer(t *testing.T) {
	t.Run("returns the same report every time", func(t *testing.T) {
		analyzer := &MockAnalyzer{Delay: 0}

		first, err := analyzer.Analyze(context.Background(), []string{"Hi, this is Alex from Acme."})
		require.NoError(t, err)
		second, err := analyzer.Analyze(context.Background(), []string{"completely different transcript"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 4.2, first.OverallScore)
		assert.Len(t, first.Analysis.Strengths, 3)
		assert.Equal(t, 85, first.Metrics.Confidence)
	})

	t.Run("respects context cancellation during delay", func(t *testing.T) {
		analyzer := &MockAnalyzer{Delay: 5 * time.Second}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := analyzer.Analyze(ctx, []string{"hello"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestOpenAIAnalyzer(t *testing.T) {
	t.Run("parses structured completion", func(t *testing.T) {
		report := cannedReport()
		content, err := json.Marshal(report)
		require.NoError(t, err)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-4o", body["model"])

			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"content": string(content)}},
				},
			})
		}))
		defer server.Close()

		analyzer := NewOpenAIAnalyzer("sk-test", "gpt-4o", server.URL)
		result, err := analyzer.Analyze(context.Background(), []string{"line one", "line two"})
		require.NoError(t, err)
		assert.Equal(t, report.OverallScore, result.OverallScore)
		assert.Equal(t, report.NextFocusAreas, result.NextFocusAreas)
	})

	t.Run("surfaces upstream failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		analyzer := NewOpenAIAnalyzer("sk-test", "gpt-4o", server.URL)
		_, err := analyzer.Analyze(context.Background(), []string{"line"})
		require.Error(t, err)
	})
}
