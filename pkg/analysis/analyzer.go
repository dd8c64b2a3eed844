// Package analysis asks the remote model for a grounded summary of the online
// discourse around a topic and parses the structured reply.
package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"trend-finder-be/internal/constant"
	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/gemini"
	"trend-finder-be/pkg/i18n"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageBytes = 10 << 20

type Image struct {
	Data     []byte
	MimeType string
}

// NewImage sniffs the content type of data and rejects anything that is not an image.
func NewImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, apperr.New(apperr.KindInputValidation, "analysis.image", "image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, apperr.New(apperr.KindInputValidation, "analysis.image", "image is too large")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, apperr.New(apperr.KindInputValidation, "analysis.image", "unsupported image type: "+mtype.String())
	}

	return &Image{Data: data, MimeType: mtype.String()}, nil
}

type Analyzer struct {
	gen    gemini.Generator
	model  string
	logger logger.ILogger
}

func NewAnalyzer(gen gemini.Generator, model string, log logger.ILogger) *Analyzer {
	return &Analyzer{
		gen:    gen,
		model:  model,
		logger: log,
	}
}

// Analyze needs text or image. Transport failures are RemoteService errors and
// unreadable replies are InvalidResponseFormat.
func (a *Analyzer) Analyze(ctx context.Context, text string, image *Image, lang entity.Language) (*entity.AnalysisResult, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return nil, apperr.New(apperr.KindInputValidation, "analysis.analyze", i18n.T(lang, i18n.MsgInputEmpty))
	}

	parts := []*gemini.Part{{Text: BuildPrompt(text, image != nil, lang)}}
	if image != nil {
		parts = append([]*gemini.Part{{
			InlineData: &gemini.Blob{
				MimeType: image.MimeType,
				Data:     base64.StdEncoding.EncodeToString(image.Data),
			},
		}}, parts...)
	}

	res, err := a.gen.GenerateContent(ctx, a.model, &gemini.GenerateContentRequest{
		Contents: []*gemini.Content{{Role: gemini.RoleUser, Parts: parts}},
		Tools:    []*gemini.Tool{{GoogleSearch: &gemini.GoogleSearch{}}},
	})
	if err != nil {
		return nil, apperr.WithMessage(err, i18n.T(lang, i18n.MsgAnalysisGeneric))
	}

	result, err := ParseResult(res.Text())
	if err != nil {
		a.logger.Warn("ANALYSIS", "Model returned an unreadable result", map[string]interface{}{
			"error": err.Error(),
			"raw":   truncate(res.Text(), 500),
		})
		return nil, apperr.WithMessage(err, i18n.T(lang, i18n.MsgInvalidFormat))
	}

	result.Sources = convertChunks(res.GroundingChunks())

	a.logger.Info("ANALYSIS", "Analysis completed", map[string]interface{}{
		"language": string(lang),
		"score":    string(result.Sentiment.Score),
		"sources":  len(result.Sources),
	})

	return result, nil
}

func BuildPrompt(text string, hasImage bool, lang entity.Language) string {
	target := i18n.TargetLanguageName(lang)
	imageClause := ""
	if hasImage {
		imageClause = constant.AnalysisImageClause
	}
	return fmt.Sprintf(constant.AnalysisPromptV1, text, imageClause, target, target, target, target, target)
}

// convertChunks keeps the citations as returned, with an empty list for none.
func convertChunks(chunks []*gemini.GroundingChunk) []entity.GroundingChunk {
	out := make([]entity.GroundingChunk, 0, len(chunks))
	for _, c := range chunks {
		if c == nil {
			out = append(out, entity.GroundingChunk{})
			continue
		}
		var chunk entity.GroundingChunk
		if c.Web != nil {
			chunk.Web = &entity.WebSource{URI: c.Web.URI, Title: c.Web.Title}
		}
		out = append(out, chunk)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
