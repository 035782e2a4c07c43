package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatij/goreport/pkg/llm"
)

func TestOllamaClientGenerate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/generate", r.URL.Path)

			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "phi:latest", req["model"])
			assert.Equal(t, "hello", req["prompt"])
			assert.Equal(t, false, req["stream"])

			json.NewEncoder(w).Encode(map[string]string{"response": "world"})
		}))
		defer srv.Close()

		client := llm.NewOllamaClient(srv.URL, time.Second)
		out, err := client.Generate(context.Background(), "phi:latest", "hello")
		assert.NoError(t, err)
		assert.Equal(t, "world", out)
	})

	t.Run("EmptyPrompt", func(t *testing.T) {
		client := llm.NewOllamaClient("http://localhost:0", time.Second)
		_, err := client.Generate(context.Background(), "phi:latest", "")
		assert.Error(t, err)
		assert.False(t, llm.IsGatewayError(err))
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		client := llm.NewOllamaClient(srv.URL, time.Second)
		_, err := client.Generate(context.Background(), "phi:latest", "hello")
		assert.Error(t, err)
		assert.True(t, llm.IsGatewayError(err))
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("ConnectionFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		client := llm.NewOllamaClient(srv.URL, time.Second)
		_, err := client.Generate(context.Background(), "phi:latest", "hello")
		assert.Error(t, err)
		assert.True(t, llm.IsGatewayError(err))
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			json.NewEncoder(w).Encode(map[string]string{"response": "too late"})
		}))
		defer srv.Close()

		client := llm.NewOllamaClient(srv.URL, 50*time.Millisecond)
		_, err := client.Generate(context.Background(), "phi:latest", "hello")
		assert.Error(t, err)
		assert.True(t, llm.IsGatewayError(err))
	})

	t.Run("MalformedResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		client := llm.NewOllamaClient(srv.URL, time.Second)
		_, err := client.Generate(context.Background(), "phi:latest", "hello")
		assert.Error(t, err)
		assert.True(t, llm.IsGatewayError(err))
	})
}
