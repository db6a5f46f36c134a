// Package copygen generates platform-tuned Facebook and Instagram copy
// for a listing through the Anthropic Messages API. The model is asked
// for a two-key JSON object; anything else is a hard parse failure that
// propagates to the caller without retry.
package copygen

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/propertypartner/social-pipeline/models"
)

const (
	DefaultModel = anthropic.Model("claude-sonnet-4-20250514")

	maxTokens      = 1000
	requestTimeout = 60 * time.Second
)

// Generator wraps the Anthropic client. Model is a field so callers can
// pin a different one; extra request options (a test server's base URL,
// retry limits) pass through NewGenerator.
type Generator struct {
	Model anthropic.Model

	client anthropic.Client
}

func NewGenerator(apiKey string, opts ...option.RequestOption) *Generator {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(requestTimeout),
	}, opts...)
	return &Generator{
		Model:  DefaultModel,
		client: anthropic.NewClient(opts...),
	}
}

// Generate produces the two post bodies from a listing record.
func (g *Generator) Generate(ctx context.Context, listing *models.ListingRecord) (*models.SocialPosts, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.Model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(listing))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("copy generation failed: %w", err)
	}
	if len(msg.Content) == 0 {
		return nil, fmt.Errorf("copy generation response had no content")
	}

	return ParsePosts(msg.Content[0].Text)
}
