package conversation

import (
	"encoding/json"
	"fmt"

	"trend-finder-be/internal/constant"
	"trend-finder-be/pkg/gemini"
	"trend-finder-be/pkg/i18n"
)

// NewGeminiFactory creates chat contexts on the given model.
func NewGeminiFactory(gen gemini.Generator, model string) ChatFactory {
	return func(seed Seed) (Chat, error) {
		history, err := SeedHistory(seed)
		if err != nil {
			return nil, err
		}
		return gemini.NewChatSession(gen, model, SystemInstruction(seed), history), nil
	}
}

func SystemInstruction(seed Seed) string {
	return fmt.Sprintf(constant.ChatSystemInstructionV1, i18n.TargetLanguageName(seed.Language))
}

// SeedHistory is the opening exchange: the original request and the analysis as JSON.
func SeedHistory(seed Seed) ([]*gemini.Content, error) {
	target := i18n.TargetLanguageName(seed.Language)

	var prompt string
	if seed.FromFavorite {
		prompt = fmt.Sprintf(constant.ChatSeedFavoritePromptV1, seed.Query, target)
	} else {
		imageClause := ""
		if seed.HasImage {
			imageClause = constant.ChatSeedImageClause
		}
		prompt = fmt.Sprintf(constant.ChatSeedAnalysisPromptV1, seed.Query, imageClause, target)
	}

	resultJSON, err := json.Marshal(seed.Result)
	if err != nil {
		return nil, fmt.Errorf("encode seed result: %w", err)
	}

	return []*gemini.Content{
		gemini.TextContent(gemini.RoleUser, prompt),
		gemini.TextContent(gemini.RoleModel, string(resultJSON)),
	}, nil
}
