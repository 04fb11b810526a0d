package plugin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chaterr"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

const (
	geminiNoResponse    = "No response generated."
	geminiEmptyResponse = "Empty response from Gemini."
	geminiErrorPrefix   = "Error accessing Gemini API: "
)

// Gemini forwards a prompt to the Gemini generateContent endpoint.
type Gemini struct {
	info
	cfg    config.GeminiPluginConfig
	keys   store.Store
	client *http.Client
}

func NewGemini(cfg config.GeminiPluginConfig, keys store.Store, client *http.Client) *Gemini {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = config.DefaultGeminiModel
	}

	return &Gemini{
		info:   newInfo(NameGemini, "Get AI-powered responses using Google Gemini", NameGemini),
		cfg:    cfg,
		keys:   keys,
		client: client,
	}
}

func (g *Gemini) Execute(ctx context.Context, args string) (Result, error) {
	prompt := strings.TrimSpace(args)
	if prompt == "" {
		return nil, chaterr.Validation(geminiErrorPrefix + "Please provide a question or prompt for Gemini.")
	}

	apiKey := g.apiKey(ctx)
	if apiKey == "" {
		return nil, chaterr.Validation(geminiErrorPrefix + "Gemini API key not found. Please set your API key using /gemini-key [your-api-key]")
	}

	if g.cfg.RequestTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.cfg.RequestTimeoutSeconds)*time.Second)
		defer cancel()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.client,
	}
	if baseURL := strings.TrimSpace(g.cfg.BaseURL); baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, chaterr.WrapExecution(geminiErrorPrefix+err.Error(), err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return nil, chaterr.WrapExecution(geminiErrorPrefix+describeGeminiError(err), err)
	}

	return GeminiResult{Prompt: prompt, Response: firstCandidateText(resp)}, nil
}

// apiKey prefers the stored key and falls back to the configured default.
func (g *Gemini) apiKey(ctx context.Context) string {
	if g.keys != nil {
		if raw, err := g.keys.Get(ctx, store.KeyGeminiAPIKey); err == nil {
			if key := strings.TrimSpace(string(raw)); key != "" {
				return key
			}
		}
	}

	return strings.TrimSpace(g.cfg.DefaultAPIKey)
}

func describeGeminiError(err error) string {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return "Gemini API Error: " + apiErrorMessage(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return "Gemini API Error: " + apiErrorMessage(*apiErrPtr)
	}

	return err.Error()
}

func apiErrorMessage(apiErr genai.APIError) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if apiErr.Status != "" {
		return apiErr.Status
	}
	return http.StatusText(apiErr.Code)
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return geminiNoResponse
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return geminiNoResponse
	}

	if text := candidate.Content.Parts[0].Text; text != "" {
		return text
	}
	return geminiEmptyResponse
}

func (g *Gemini) Render(result Result) Card {
	data, ok := result.(GeminiResult)
	if !ok {
		return Card{}
	}

	return Card{
		Title: "Gemini AI Response",
		Rows:  []Row{{Label: "Your prompt", Value: data.Prompt}},
		Body:  data.Response,
	}
}

// GeminiKey stores the key used by the gemini plugin.
type GeminiKey struct {
	info
	keys store.Store
}

func NewGeminiKey(keys store.Store) *GeminiKey {
	return &GeminiKey{
		info: newInfo(NameGeminiKey, "Set your Gemini API key", NameGeminiKey),
		keys: keys,
	}
}

func (k *GeminiKey) Execute(ctx context.Context, args string) (Result, error) {
	key := strings.TrimSpace(args)
	if key == "" {
		return nil, chaterr.Validation("Please provide a valid Gemini API key.")
	}
	if k.keys == nil {
		return nil, chaterr.Execution("Failed to set Gemini API key: no key store configured")
	}

	if err := k.keys.Put(ctx, store.KeyGeminiAPIKey, []byte(key)); err != nil {
		return nil, chaterr.WrapExecution("Failed to set Gemini API key: "+err.Error(), err)
	}

	return GeminiKeyResult{
		Message: "Gemini API key has been set successfully. You can now use /gemini [prompt] to interact with Gemini AI.",
	}, nil
}

func (k *GeminiKey) Render(result Result) Card {
	data, ok := result.(GeminiKeyResult)
	if !ok {
		return Card{}
	}

	return Card{Title: "Gemini API Key", Body: data.Message}
}
