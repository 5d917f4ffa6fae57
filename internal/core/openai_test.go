package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinestream.app/cinebot/internal/locale"
)

func newOpenAIServer(t *testing.T, hits *atomic.Int32, handle func(w http.ResponseWriter, req openai.ChatCompletionRequest)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handle(w, req)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIGenerator(t *testing.T) {
	var hits atomic.Int32
	var received openai.ChatCompletionRequest
	server := newOpenAIServer(t, &hits, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		received = req
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "1. Alien\n2. Heat\n3. Up"}},
			},
		})
	})

	gen := NewOpenAIGenerator("sk-test", server.URL+"/v1", "gpt-test")
	text, err := gen.Generate(context.Background(), mustRequest(t, "comedy", locale.EN), 0.7)

	require.NoError(t, err)
	assert.Equal(t, "1. Alien\n2. Heat\n3. Up", text)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "gpt-test", received.Model)
	assert.InDelta(t, 0.7, received.Temperature, 0.0001)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, received.Messages[0].Role)
	assert.Equal(t, locale.For(locale.EN).Instruction, received.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, received.Messages[1].Role)
	assert.Equal(t, "comedy", received.Messages[1].Content)
}

func TestOpenAIGeneratorNoChoices(t *testing.T) {
	var hits atomic.Int32
	server := newOpenAIServer(t, &hits, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	})

	gen := NewOpenAIGenerator("sk-test", server.URL+"/v1", "")
	text, err := gen.Generate(context.Background(), mustRequest(t, "comedy", locale.EN), 0.7)

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAIGeneratorServiceError(t *testing.T) {
	var hits atomic.Int32
	server := newOpenAIServer(t, &hits, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	})

	gen := NewOpenAIGenerator("sk-test", server.URL+"/v1", "")
	_, err := gen.Generate(context.Background(), mustRequest(t, "comedy", locale.EN), 0.7)

	assert.Error(t, err)
}
