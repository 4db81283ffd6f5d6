// Package gemini wraps the Google generative-language service behind a small
// schema-constrained generation primitive, a credentialed client pool, and an
// explicit retry policy with error classification.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used across the application unless configured otherwise.
const DefaultModel = "gemini-2.5-flash"

// Blob carries binary media for non-text input.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Request describes a single remote generation call: a model identifier, a
// content payload, a target output schema, and a decoding temperature.
type Request struct {
	Model       string
	Prompt      string
	Media       []Blob
	Schema      *genai.Schema
	Temperature float32
}

// Response is one of two shapes: Parsed is set when the service returned
// schema-conformant JSON (fast path); otherwise callers must parse and
// validate Text themselves.
type Response struct {
	Parsed json.RawMessage
	Text   string
}

// Generator issues exactly one remote generation call per invocation.
type Generator interface {
	GenerateContent(ctx context.Context, req Request) (Response, error)
}

// Client is a connection handle bound to a single credential.
type Client struct {
	genai *genai.Client
}

// Compile-time interface check.
var _ Generator = (*Client)(nil)

// newClient dials the generative-language backend with the given credential.
// The credential stays inside the handle; it is never written to process-wide
// environment state.
func newClient(ctx context.Context, credential string) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: gc}, nil
}

// GenerateContent issues one structured-output generation call.
func (c *Client) GenerateContent(ctx context.Context, req Request) (Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(req.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}

	contents := genai.Text(req.Prompt)
	if len(req.Media) > 0 {
		parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
		for _, b := range req.Media {
			parts = append(parts, genai.NewPartFromBytes(b.Data, b.MIMEType))
		}
		contents = []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	}

	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return Response{}, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Response{}, ErrEmptyResponse
	}

	out := Response{Text: text}
	// Under schema enforcement the service normally hands back valid JSON;
	// treat that as the pre-parsed fast path. Anything else falls back to
	// the caller's manual parse.
	if json.Valid([]byte(text)) {
		out.Parsed = json.RawMessage(text)
	}
	return out, nil
}
