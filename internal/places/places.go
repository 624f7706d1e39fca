// README: Destination suggestions and reverse geocoding for the ride form.
package places

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"quickride/internal/types"
)

// MinQueryLength is the shortest query worth sending to a provider.
const MinQueryLength = 2

const maxSuggestions = 5

type Suggestion struct {
	Title   string `json:"title"`
	Address string `json:"address"`
}

// Suggester looks up places for the destination field. Near is optional and
// biases results towards the passenger.
type Suggester interface {
	Suggest(ctx context.Context, query string, near *types.Point) ([]Suggestion, error)
	Reverse(ctx context.Context, at types.Point) (string, error)
}

// tooShort reports whether query should return no suggestions at all.
func tooShort(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) < MinQueryLength
}

func coordsLabel(at types.Point) string {
	return fmt.Sprintf("Coordenadas: %.4f, %.4f", at.Lat, at.Lng)
}

// Fallback tries Primary first and answers from Secondary when it fails.
type Fallback struct {
	Primary   Suggester
	Secondary Suggester
	Log       logrus.FieldLogger
}

func (f Fallback) Suggest(ctx context.Context, query string, near *types.Point) ([]Suggestion, error) {
	if tooShort(query) {
		return nil, nil
	}
	out, err := f.Primary.Suggest(ctx, query, near)
	if err == nil {
		return out, nil
	}
	f.logger().WithError(err).WithField("query", query).Warn("place suggestions failed, using fallback")
	return f.Secondary.Suggest(ctx, query, near)
}

func (f Fallback) Reverse(ctx context.Context, at types.Point) (string, error) {
	out, err := f.Primary.Reverse(ctx, at)
	if err == nil && out != "" {
		return out, nil
	}
	if err != nil {
		f.logger().WithError(err).Warn("reverse geocoding failed, using fallback")
	}
	return f.Secondary.Reverse(ctx, at)
}

func (f Fallback) logger() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}
