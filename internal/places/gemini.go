// README: Gemini-backed suggester: JSON-mode prompt for Brazilian addresses.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"quickride/internal/types"
)

const geminiModel = "gemini-2.0-flash"

var errNoCandidates = errors.New("no response candidates from Gemini")

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	client  *genai.Client
	suggest generator
	reverse generator
}

// NewGemini creates a client with two models: one forced to a JSON array
// schema for suggestions, one free text for reverse lookups.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	suggest := client.GenerativeModel(geminiModel)
	suggest.ResponseMIMEType = "application/json"
	suggest.ResponseSchema = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":   {Type: genai.TypeString, Description: "Nome curto do local ou estabelecimento"},
				"address": {Type: genai.TypeString, Description: "Endereço formatado (Rua, Número, Bairro, Cidade - UF)"},
			},
			Required: []string{"title", "address"},
		},
	}
	suggest.SetTemperature(0.4)

	reverse := client.GenerativeModel(geminiModel)
	reverse.SetTemperature(0.2)

	return &Gemini{client: client, suggest: suggest, reverse: reverse}, nil
}

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Gemini) Suggest(ctx context.Context, query string, near *types.Point) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if tooShort(query) {
		return nil, nil
	}
	text, err := generateText(ctx, g.suggest, suggestPrompt(query, near))
	if err != nil {
		return nil, err
	}
	var out []Suggestion
	if err := json.Unmarshal([]byte(cleanJSONString(text)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}

func (g *Gemini) Reverse(ctx context.Context, at types.Point) (string, error) {
	text, err := generateText(ctx, g.reverse, reversePrompt(at))
	if err != nil {
		return "", err
	}
	if text = strings.TrimSpace(text); text != "" {
		return text, nil
	}
	return fmt.Sprintf("Localização (%.4f, %.4f)", at.Lat, at.Lng), nil
}

func suggestPrompt(query string, near *types.Point) string {
	location := "Considere locais populares em grandes cidades do Brasil."
	if near != nil {
		location = fmt.Sprintf("O usuário está atualmente próximo às coordenadas Latitude %v, Longitude %v. "+
			"Priorize locais e endereços que sejam próximos a este ponto ou na mesma cidade/região.", near.Lat, near.Lng)
	}
	return fmt.Sprintf("%s Forneça %d sugestões de endereços reais, estabelecimentos ou locais públicos "+
		"que correspondam ou contenham: %q. Retorne APENAS um array JSON.", location, maxSuggestions, query)
}

func reversePrompt(at types.Point) string {
	return fmt.Sprintf("Identifique o endereço ou local mais provável para as coordenadas Latitude: %v, Longitude: %v no Brasil. "+
		"Responda APENAS com o nome do local ou endereço curto e formatado "+
		"(ex: \"Shopping Center Norte - Travessa Casalbuono, 120\"). Não inclua explicações adicionais.", at.Lat, at.Lng)
}

func generateText(ctx context.Context, model generator, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errNoCandidates
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// cleanJSONString strips a markdown code fence around the payload.
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
