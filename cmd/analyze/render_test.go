package main

import (
	"bytes"
	"testing"

	"trend-finder-be/internal/entity"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrintResult(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	printResult(&out, &entity.AnalysisResult{
		Summary:         "People are split.",
		RelatedKeywords: []string{"a", "b"},
		Sentiment: entity.SentimentAnalysis{
			Score:         entity.SentimentNeutral,
			Details:       entity.SentimentDetails{PositivePercentage: 40, NegativePercentage: 35, NeutralPercentage: 25},
			ExampleQuotes: []string{"meh"},
		},
		Sources: []entity.GroundingChunk{
			{},
			{Web: &entity.WebSource{URI: "https://example.com/x", Title: "Example"}},
		},
	})

	s := out.String()
	assert.Contains(t, s, "People are split.")
	assert.Contains(t, s, "Overall: NEUTRAL")
	assert.Contains(t, s, "40%")
	assert.Contains(t, s, "\"meh\"")
	assert.Contains(t, s, "a, b")
	assert.Contains(t, s, "1. Example https://example.com/x")
	assert.NotContains(t, s, "2.")
}

func TestRootCommandRejectsBadLanguage(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"topic", "--lang", "fr"})
	err := cmd.Execute()
	assert.Error(t, err)
}
