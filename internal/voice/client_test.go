package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSignedURL(t *testing.T) {
	t.Run("returns signed url on success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, signedURLPath, r.URL.Path)
			assert.Equal(t, "agent_123", r.URL.Query().Get("agent_id"))
			assert.Equal(t, "xi_test_key", r.Header.Get("xi-api-key"))

			json.NewEncoder(w).Encode(map[string]string{
				"signed_url": "wss://api.elevenlabs.io/v1/convai/conversation?token=abc",
			})
		}))
		defer server.Close()

		client := NewClient("xi_test_key", "agent_123", server.URL)
		result, err := client.GetSignedURL(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "wss://api.elevenlabs.io/v1/convai/conversation?token=abc", result.SignedURL)
		assert.Equal(t, "agent_123", result.AgentID)
	})

	t.Run("preserves vendor status on error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"invalid api key"}`))
		}))
		defer server.Close()

		client := NewClient("bad_key", "agent_123", server.URL)
		_, err := client.GetSignedURL(context.Background())
		require.Error(t, err)

		var vendorErr *VendorError
		require.True(t, errors.As(err, &vendorErr))
		assert.Equal(t, http.StatusUnauthorized, vendorErr.StatusCode)
		assert.Contains(t, vendorErr.Body, "invalid api key")
	})

	t.Run("wraps connection failures", func(t *testing.T) {
		client := NewClient("xi_test_key", "agent_123", "http://127.0.0.1:1")
		_, err := client.GetSignedURL(context.Background())
		require.Error(t, err)

		var vendorErr *VendorError
		assert.False(t, errors.As(err, &vendorErr))
	})
}
