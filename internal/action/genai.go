package action

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Models maps capabilities to Gemini model names.
type Models struct {
	Text         string
	Image        string
	ImagePremium string
	ImageEdit    string
}

// ModelFor returns the model used for req when it does not set one.
func (m Models) ModelFor(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	switch req.Capability {
	case CapabilityImage:
		if req.Privileged && m.ImagePremium != "" {
			return m.ImagePremium
		}
		return m.Image
	case CapabilityImageEdit:
		return m.ImageEdit
	default:
		return m.Text
	}
}

// GenAIExecutor is the production [Executor] backed by the Gemini API.
//
// Privileged requests are sent with the premium key when one is available
// from the key source; otherwise they use the default client. The
// precondition itself is enforced by [Gated], not here.
type GenAIExecutor struct {
	client        *genai.Client
	models        Models
	privilegedKey func() string

	mu      sync.Mutex
	premium map[string]*genai.Client
}

// GenAIOption configures a [GenAIExecutor].
type GenAIOption func(*GenAIExecutor)

// WithPrivilegedKey sets the source of the premium API key.
func WithPrivilegedKey(source func() string) GenAIOption {
	return func(e *GenAIExecutor) {
		e.privilegedKey = source
	}
}

// NewGenAIExecutor creates a Gemini-backed executor.
func NewGenAIExecutor(ctx context.Context, apiKey string, models Models, opts ...GenAIOption) (*GenAIExecutor, error) {
	if apiKey == "" {
		return nil, NewFailure(KindUnauthorized, "", errors.New("no API key configured"))
	}
	client, err := newGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	e := &GenAIExecutor{
		client:  client,
		models:  models,
		premium: make(map[string]*genai.Client),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Execute dispatches req to the Gemini API.
func (e *GenAIExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	if !req.Capability.IsValid() {
		return nil, fmt.Errorf("unsupported capability %q", req.Capability)
	}

	client, err := e.clientFor(ctx, req)
	if err != nil {
		return nil, NewFailure(KindTransport, req.Capability, err)
	}
	model := e.models.ModelFor(req)

	switch req.Capability {
	case CapabilityStreamingText:
		return e.stream(ctx, client, model, req)
	case CapabilityImage:
		return e.generateImage(ctx, client, model, req)
	case CapabilityImageEdit:
		return e.editImage(ctx, client, model, req)
	default:
		return e.generate(ctx, client, model, req)
	}
}

func (e *GenAIExecutor) clientFor(ctx context.Context, req Request) (*genai.Client, error) {
	if !req.Privileged || e.privilegedKey == nil {
		return e.client, nil
	}
	key := e.privilegedKey()
	if key == "" {
		return e.client, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.premium[key]; ok {
		return c, nil
	}
	c, err := newGenAIClient(ctx, key)
	if err != nil {
		return nil, err
	}
	e.premium[key] = c
	return c, nil
}

func contentConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Capability == CapabilityStructuredText || req.Options.ResponseFormat == FormatJSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.Options.SearchGrounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func (e *GenAIExecutor) generate(ctx context.Context, client *genai.Client, model string, req Request) (*Result, error) {
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), contentConfig(req))
	if err != nil {
		return nil, classifyError(req.Capability, err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, NewFailure(KindEmptyResponse, req.Capability, nil)
	}
	return &Result{Text: text, Sources: groundingSources(resp)}, nil
}

func (e *GenAIExecutor) stream(ctx context.Context, client *genai.Client, model string, req Request) (*Result, error) {
	var (
		b       strings.Builder
		sources []string
	)

	for resp, err := range client.Models.GenerateContentStream(ctx, model, genai.Text(req.Prompt), contentConfig(req)) {
		if err != nil {
			if b.Len() > 0 {
				return &Result{Text: b.String(), Sources: sources}, NewFailure(KindStreamInterrupted, req.Capability, err)
			}
			return nil, classifyError(req.Capability, err)
		}

		sources = append(sources, groundingSources(resp)...)
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		b.WriteString(chunk)
		if req.OnChunk != nil {
			req.OnChunk(chunk)
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return nil, NewFailure(KindEmptyResponse, req.Capability, nil)
	}
	return &Result{Text: b.String(), Sources: sources}, nil
}

func (e *GenAIExecutor) generateImage(ctx context.Context, client *genai.Client, model string, req Request) (*Result, error) {
	prompt := req.Prompt
	if req.Options.Size != "" {
		prompt = fmt.Sprintf("%s\n\nRender at %s resolution.", prompt, req.Options.Size)
	}

	resp, err := client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		AspectRatio: req.Options.AspectRatio,
	})
	if err != nil {
		return nil, classifyError(req.Capability, err)
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mime := generated.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return &Result{Image: &Attachment{Data: generated.Image.ImageBytes, MIMEType: mime}}, nil
	}
	return nil, NewFailure(KindEmptyResponse, req.Capability, nil)
}

func (e *GenAIExecutor) editImage(ctx context.Context, client *genai.Client, model string, req Request) (*Result, error) {
	if req.Attachment == nil || len(req.Attachment.Data) == 0 {
		return nil, fmt.Errorf("image edit requires an attachment")
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Attachment.Data, req.Attachment.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := contentConfig(req)
	cfg.ResponseModalities = []string{"TEXT", "IMAGE"}

	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, classifyError(req.Capability, err)
	}

	result := &Result{Text: responseText(resp)}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				result.Image = &Attachment{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
				return result, nil
			}
		}
	}
	return nil, NewFailure(KindEmptyResponse, req.Capability, nil)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func groundingSources(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var sources []string
	for _, chunk := range meta.GroundingChunks {
		if chunk != nil && chunk.Web != nil && chunk.Web.URI != "" {
			sources = append(sources, chunk.Web.URI)
		}
	}
	return sources
}

// classifyError maps a Gemini client error onto the failure taxonomy.
func classifyError(capability Capability, err error) error {
	if code, ok := apiErrorCode(err); ok {
		switch code {
		case http.StatusTooManyRequests:
			return NewFailure(KindRateLimited, capability, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return NewFailure(KindUnauthorized, capability, err)
		}
	}
	return NewFailure(KindTransport, capability, err)
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
