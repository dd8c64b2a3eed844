// Package speech turns text into raw PCM audio using the remote TTS model.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"trend-finder-be/internal/constant"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/gemini"
)

const DefaultVoice = "Kore"

type Synthesizer struct {
	gen    gemini.Generator
	model  string
	voice  string
	logger logger.ILogger
}

func NewSynthesizer(gen gemini.Generator, model, voice string, log logger.ILogger) *Synthesizer {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{
		gen:    gen,
		model:  model,
		voice:  voice,
		logger: log,
	}
}

// Synthesize returns 16-bit little-endian mono PCM at 24 kHz. A reply without
// audio is a RemoteService error.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	const op = "speech.synthesize"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindInputValidation, op, "nothing to read")
	}

	res, err := s.gen.GenerateContent(ctx, s.model, &gemini.GenerateContentRequest{
		Contents: []*gemini.Content{gemini.TextContent("", fmt.Sprintf(constant.SpeechPromptV1, text))},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseModalities: []string{gemini.ModalityAudio},
			SpeechConfig: &gemini.SpeechConfig{
				VoiceConfig: &gemini.VoiceConfig{
					PrebuiltVoiceConfig: &gemini.PrebuiltVoiceConfig{VoiceName: s.voice},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	blob := res.InlineData()
	if blob == nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, op, errors.New("no audio data received"))
	}

	audio, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, op, fmt.Errorf("decode audio: %w", err))
	}

	s.logger.Debug("SPEECH", "Synthesized audio", map[string]interface{}{
		"bytes":     len(audio),
		"mime_type": blob.MimeType,
	})

	return audio, nil
}
