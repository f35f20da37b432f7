package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(time.Duration) {}

func completion(content string) ChatResponse {
	return ChatResponse{
		ID:     "test-id",
		Object: "chat.completion",
		Choices: []ChatChoice{
			{
				Index: 0,
				Message: ChatChoiceMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081/", " test-key ", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
	if client.retryMaxAttempts != defaultRetryAttempts {
		t.Errorf("NewClient() retryMaxAttempts = %d, want %d", client.retryMaxAttempts, defaultRetryAttempts)
	}
}

func TestClient_CompleteJSON(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		want       string
		wantErr    bool
	}{
		{
			name: "successful completion",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
					t.Errorf("response_format = %+v, want json_object", req.ResponseFormat)
				}
				if req.Temperature != 0 {
					t.Errorf("temperature = %v, want 0", req.Temperature)
				}
				if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
					t.Errorf("messages = %+v, want system then user", req.Messages)
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(completion(`{"items":[]}`))
			},
			want: `{"items":[]}`,
		},
		{
			name: "client error is not retried",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("bad request"))
			},
			wantErr: true,
		},
		{
			name: "api error payload",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"model not loaded"}}`))
			},
			wantErr: true,
		},
		{
			name: "malformed body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model", WithSleeper(noSleep))
			got, err := client.CompleteJSON(context.Background(), "system", "user")

			if tt.wantErr {
				if err == nil {
					t.Errorf("CompleteJSON() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("CompleteJSON() unexpected error: %v", err)
				return
			}

			if got != tt.want {
				t.Errorf("CompleteJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_CompleteJSON_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			_ = json.NewEncoder(w).Encode(completion(""))
		default:
			_ = json.NewEncoder(w).Encode(completion(`{"ok":true}`))
		}
	}))
	defer server.Close()

	var delays []time.Duration
	client := NewClient(server.URL, "k", "m",
		WithRetryMaxAttempts(3),
		WithRetryBackoff(100*time.Millisecond, time.Second),
		WithSleeper(func(d time.Duration) { delays = append(delays, d) }),
	)

	got, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON() error = %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("CompleteJSON() = %v, want {\"ok\":true}", got)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
	if len(delays) != 2 || delays[0] != 100*time.Millisecond || delays[1] != 200*time.Millisecond {
		t.Errorf("backoff delays = %v, want [100ms 200ms]", delays)
	}
}

func TestClient_CompleteJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m", WithRetryMaxAttempts(2), WithSleeper(noSleep))
	_, err := client.CompleteJSON(context.Background(), "system", "user")

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("CompleteJSON() error = %v, want HTTPStatusError 503", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", calls.Load())
	}
}

func TestClient_CompleteJSON_RespectsContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, "k", "m", WithSleeper(noSleep))
	_, err := client.CompleteJSON(ctx, "system", "user")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("CompleteJSON() error = %v, want deadline exceeded", err)
	}
}

func TestClient_CompleteJSON_RequiresPrompts(t *testing.T) {
	client := NewClient("http://unused", "k", "m")
	if _, err := client.CompleteJSON(context.Background(), " ", "user"); err == nil {
		t.Error("CompleteJSON() expected error for empty system prompt")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", ""); err == nil {
		t.Error("CompleteJSON() expected error for empty user prompt")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Errorf("parseRetryAfter(3) = %v, %v; want 3s, true", d, ok)
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Error("parseRetryAfter(\"\") ok = true, want false")
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Error("parseRetryAfter(-1) ok = true, want false")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain", content: `{"name":"a"}`, want: "a"},
		{name: "json fence", content: "```json\n{\"name\":\"b\"}\n```", want: "b"},
		{name: "bare fence", content: "```\n{\"name\":\"c\"}\n```", want: "c"},
		{name: "empty", content: "  ", wantErr: true},
		{name: "not json", content: "sure, here you go", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Name string `json:"name"`
			}
			err := DecodeJSON(tt.content, &got)
			if tt.wantErr {
				if err == nil {
					t.Errorf("DecodeJSON(%q) expected error", tt.content)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON(%q) error = %v", tt.content, err)
			}
			if got.Name != tt.want {
				t.Errorf("DecodeJSON(%q) name = %q, want %q", tt.content, got.Name, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	got := StripCodeFence("```json\n{\"a\":1}\n```")
	if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
		t.Errorf("StripCodeFence() = %q, want bare object", got)
	}
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "reachable", status: http.StatusOK},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/models" {
					t.Errorf("expected /v1/models, got %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := NewClient(server.URL, "k", "m").Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Ping() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
