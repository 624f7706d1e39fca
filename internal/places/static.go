// README: Offline suggester used when no provider key is configured or a provider fails.
package places

import (
	"context"
	"strings"

	"quickride/internal/types"
)

var landmarks = []Suggestion{
	{Title: "Aeroporto Internacional de Guarulhos", Address: "Rod. Hélio Smidt, s/n - Cumbica, Guarulhos - SP"},
	{Title: "Estação da Luz", Address: "Praça da Luz, 1 - Luz, São Paulo - SP"},
	{Title: "Terminal Rodoviário Tietê", Address: "Av. Cruzeiro do Sul, 1800 - Santana, São Paulo - SP"},
	{Title: "Shopping Center Norte", Address: "Travessa Casalbuono, 120 - Vila Guilherme, São Paulo - SP"},
	{Title: "Parque Ibirapuera", Address: "Av. Pedro Álvares Cabral, s/n - Vila Mariana, São Paulo - SP"},
	{Title: "Mercado Ver-o-Peso", Address: "Av. Boulevard Castilhos França - Campina, Belém - PA"},
	{Title: "Aeroporto de Santarém", Address: "Rod. Fernando Guilhon, s/n - Santarenzinho, Santarém - PA"},
}

// Static answers from a fixed landmark list plus two generic entries built
// from the query, so the form always has something to show.
type Static struct{}

func (Static) Suggest(_ context.Context, query string, _ *types.Point) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if tooShort(query) {
		return nil, nil
	}
	q := strings.ToLower(query)
	out := make([]Suggestion, 0, maxSuggestions)
	for _, s := range landmarks {
		if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.Address), q) {
			out = append(out, s)
		}
	}
	out = append(out,
		Suggestion{Title: query + " Center", Address: "Avenida Principal, 1000 - Centro"},
		Suggestion{Title: "Estação " + query, Address: "Rua das Flores, s/n - Próximo ao metrô"},
	)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}

func (Static) Reverse(_ context.Context, at types.Point) (string, error) {
	return coordsLabel(at), nil
}
