package copygen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/propertypartner/social-pipeline/models"
)

func TestParsePostsPlainJSON(t *testing.T) {
	posts, err := ParsePosts(`{"facebook": "FB text", "instagram": "IG text"}`)
	if err != nil {
		t.Fatalf("ParsePosts() failed: %v", err)
	}
	if posts.Facebook != "FB text" || posts.Instagram != "IG text" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestParsePostsTolerantOfFencesAndProse(t *testing.T) {
	text := "Sure! Here are your posts:\n```json\n" +
		`{"facebook": "FB", "instagram": "IG"}` +
		"\n```\nLet me know if you want variations."
	posts, err := ParsePosts(text)
	if err != nil {
		t.Fatalf("ParsePosts() failed: %v", err)
	}
	if posts.Facebook != "FB" || posts.Instagram != "IG" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestParsePostsMissingKey(t *testing.T) {
	_, err := ParsePosts(`{"facebook": "only one"}`)
	if err == nil {
		t.Fatal("expected error for missing instagram key")
	}
}

func TestParsePostsNoJSON(t *testing.T) {
	_, err := ParsePosts("I could not generate any posts, sorry.")
	if err == nil {
		t.Fatal("expected error when no JSON object is present")
	}
}

// messagesCapture is the wire shape of a Messages API request, enough
// of it to verify what the generator sent.
type messagesCapture struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func TestGenerate(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotReq messagesCapture
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_1", "type": "message", "role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "{\"facebook\": \"FB\", \"instagram\": \"IG\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 10}
		}`)
	}))
	defer srv.Close()

	g := NewGenerator("sk-test", option.WithBaseURL(srv.URL))

	listing := &models.ListingRecord{
		URL:        "https://www.trademe.co.nz/listing/123",
		Title:      "Sunny flat, Ponsonby, Auckland",
		Price:      "$650 per week",
		Attributes: map[string]string{"bedrooms": "2"},
	}
	posts, err := g.Generate(context.Background(), listing)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if posts.Facebook != "FB" || posts.Instagram != "IG" {
		t.Errorf("posts = %+v", posts)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("path = %q, want /v1/messages", gotPath)
	}
	if gotKey != "sk-test" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if gotReq.Model != string(DefaultModel) || gotReq.MaxTokens != maxTokens {
		t.Errorf("request model/tokens = %q/%d", gotReq.Model, gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 1 {
		t.Fatalf("unexpected message shape: %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Role != "user" {
		t.Errorf("role = %q, want user", gotReq.Messages[0].Role)
	}
	prompt := gotReq.Messages[0].Content[0].Text
	for _, want := range []string{"Sunny flat, Ponsonby, Auckland", "$650 per week", "2 bedrooms", listing.URL} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type": "error", "error": {"type": "invalid_request_error", "message": "bad prompt"}}`)
	}))
	defer srv.Close()

	g := NewGenerator("sk-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	_, err := g.Generate(context.Background(), &models.ListingRecord{URL: "https://example.com"})
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *anthropic.Error", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
}

func TestBuildPromptFillsMissingFields(t *testing.T) {
	prompt := buildPrompt(&models.ListingRecord{URL: "https://example.com/listing/1"})
	if !strings.Contains(prompt, "Title: N/A") {
		t.Error("empty title should render as N/A")
	}
	if !strings.Contains(prompt, "Price: N/A") {
		t.Error("empty price should render as N/A")
	}
}
