package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// SDKProvider calls Gemini through the typed genai client.
type SDKProvider struct {
	apiKey string
	model  string

	mu        sync.Mutex
	client    *genai.Client
	newClient func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)
}

func NewSDKProvider(apiKey, model string) *SDKProvider {
	return &SDKProvider{apiKey: apiKey, model: model, newClient: genai.NewClient}
}

// clientFor builds the client on first use. A failed build is retried on
// the next call.
func (p *SDKProvider) clientFor(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := p.newClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *SDKProvider) Method() Method   { return MethodSDK }
func (p *SDKProvider) Configured() bool { return p.apiKey != "" }

func (p *SDKProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrNotConfigured
	}
	client, err := p.clientFor(ctx)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
