package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"trend-finder-be/internal/entity"
	"trend-finder-be/pkg/apperr"
)

var (
	errEmptyReply = errors.New("empty reply")

	fenceOpen  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	fenceClose = regexp.MustCompile("\r?\n?```$")
)

// StripCodeFence removes a surrounding ```json ... ``` block, if any.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

type rawResult struct {
	Summary         string   `json:"summary"`
	RelatedKeywords []string `json:"related_keywords"`
	Sentiment       struct {
		Score         string                  `json:"score"`
		Details       entity.SentimentDetails `json:"details"`
		ExampleQuotes []string                `json:"example_quotes"`
	} `json:"sentiment"`
}

// ParseResult decodes the model reply. Sources are left empty for the caller.
func ParseResult(raw string) (*entity.AnalysisResult, error) {
	const op = "analysis.parse"

	body := StripCodeFence(raw)
	if body == "" {
		return nil, apperr.Wrap(apperr.KindInvalidResponseFormat, op, errEmptyReply)
	}

	var r rawResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidResponseFormat, op, err)
	}

	if strings.TrimSpace(r.Summary) == "" {
		return nil, apperr.Wrap(apperr.KindInvalidResponseFormat, op, errors.New("missing summary"))
	}

	score := entity.SentimentScore(strings.ToUpper(strings.TrimSpace(r.Sentiment.Score)))
	if !score.Valid() {
		return nil, apperr.Wrap(apperr.KindInvalidResponseFormat, op, fmt.Errorf("unknown sentiment score %q", r.Sentiment.Score))
	}

	keywords := r.RelatedKeywords
	if keywords == nil {
		keywords = []string{}
	}
	quotes := r.Sentiment.ExampleQuotes
	if quotes == nil {
		quotes = []string{}
	}

	return &entity.AnalysisResult{
		Summary:         r.Summary,
		RelatedKeywords: keywords,
		Sentiment: entity.SentimentAnalysis{
			Score:         score,
			Details:       r.Sentiment.Details,
			ExampleQuotes: quotes,
		},
		Sources: []entity.GroundingChunk{},
	}, nil
}
