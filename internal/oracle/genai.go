package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"google.golang.org/genai"
)

// GenAIConfig holds Gemini settings
type GenAIConfig struct {
	APIKey string
	Model  string
	// MaxToolRounds caps model calls per turn
	MaxToolRounds int
	Temperature   float32
}

// DefaultGenAIConfig returns sensible defaults for the Gemini oracle
func DefaultGenAIConfig() GenAIConfig {
	return GenAIConfig{
		Model:         "gemini-2.5-flash",
		MaxToolRounds: 6,
		Temperature:   0.8,
	}
}

// contentGenerator is the part of the genai client the oracle uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI is an oracle backed by Gemini function calling
type GenAI struct {
	models contentGenerator
	cfg    GenAIConfig
	logger *slog.Logger
}

// NewGenAI creates a Gemini oracle
func NewGenAI(ctx context.Context, cfg GenAIConfig, logger *slog.Logger) (*GenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genai: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	return newGenAI(client.Models, cfg, logger), nil
}

func newGenAI(models contentGenerator, cfg GenAIConfig, logger *slog.Logger) *GenAI {
	defaults := DefaultGenAIConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaults.MaxToolRounds
	}
	return &GenAI{models: models, cfg: cfg, logger: logger}
}

var _ Oracle = (*GenAI)(nil)

// Respond runs the function-calling loop until the model answers in text
func (g *GenAI) Respond(ctx context.Context, req Request) (*Reply, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		contents = append(contents, genai.NewContentFromText(msg.Content, toGenAIRole(msg.Role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Utterance, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Instructions, genai.RoleUser),
		Temperature:       genai.Ptr(g.cfg.Temperature),
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations(req.Tools)}}
	}

	reply := &Reply{}
	for round := 0; round < g.cfg.MaxToolRounds; round++ {
		resp, err := g.models.GenerateContent(ctx, g.cfg.Model, contents, config)
		if err != nil {
			return nil, fmt.Errorf("genai: generate: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, errors.New("genai: empty response")
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			reply.Text = resp.Text()
			return reply, nil
		}
		if req.Invoke == nil {
			return nil, errors.New("genai: model called a tool but no invoker was given")
		}

		contents = append(contents, resp.Candidates[0].Content)
		parts := make([]*genai.Part, 0, len(calls))
		for _, fc := range calls {
			call := ToolCall{ID: fc.ID, Name: fc.Name, Input: stringArgs(fc.Args, digitWidths(req.Tools, fc.Name))}
			outcome, err := req.Invoke(ctx, call)
			if err != nil {
				return nil, fmt.Errorf("genai: tool %s: %w", fc.Name, err)
			}
			g.logger.DebugContext(ctx, "tool call",
				slog.String("tool", fc.Name),
				slog.String("outcome", outcome),
			)
			reply.Calls = append(reply.Calls, call)
			part := genai.NewPartFromFunctionResponse(fc.Name, map[string]any{"result": outcome})
			part.FunctionResponse.ID = fc.ID
			parts = append(parts, part)
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
	return nil, ErrTooManyToolRounds
}

func toGenAIRole(r Role) genai.Role {
	if r == RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func declarations(tools []ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(tool.Parameters)),
		}
		for _, p := range tool.Parameters {
			schema.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
			schema.Required = append(schema.Required, p.Name)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schema,
		})
	}
	return decls
}

// digitWidths returns the fixed digit widths of the named tool's parameters
func digitWidths(tools []ToolDefinition, name string) map[string]int {
	widths := make(map[string]int)
	for _, tool := range tools {
		if tool.Name != name {
			continue
		}
		for _, p := range tool.Parameters {
			if p.Digits > 0 {
				widths[p.Name] = p.Digits
			}
		}
	}
	return widths
}

// stringArgs flattens model arguments to strings. Numbers are written
// without exponents, and whole numbers for a fixed-width parameter get
// their leading zeros back.
func stringArgs(args map[string]any, digits map[string]int) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case float64:
			if width := digits[k]; width > 0 && val >= 0 && val == math.Trunc(val) {
				out[k] = fmt.Sprintf("%0*d", width, int64(val))
				continue
			}
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
