package gemini

import "strings"

const (
	RoleUser  = "user"
	RoleModel = "model"

	ModalityAudio = "AUDIO"
)

type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts"`
}

func TextContent(role, text string) *Content {
	return &Content{Role: role, Parts: []*Part{{Text: text}}}
}

type GoogleSearch struct{}

type Tool struct {
	GoogleSearch *GoogleSearch `json:"googleSearch,omitempty"`
}

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
	Temperature        *float64      `json:"temperature,omitempty"`
}

type GenerateContentRequest struct {
	Contents          []*Content        `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []*Tool           `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type WebChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

type GroundingMetadata struct {
	GroundingChunks  []*GroundingChunk `json:"groundingChunks"`
	WebSearchQueries []string          `json:"webSearchQueries,omitempty"`
}

type Candidate struct {
	Content           *Content           `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type GenerateContentResponse struct {
	Candidates     []*Candidate    `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

func (r *GenerateContentResponse) first() *Candidate {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0] == nil {
		return nil
	}
	return r.Candidates[0]
}

// Text joins the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	c := r.first()
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// InlineData returns the first inline blob of the first candidate, or nil.
func (r *GenerateContentResponse) InlineData() *Blob {
	c := r.first()
	if c == nil || c.Content == nil {
		return nil
	}
	for _, p := range c.Content.Parts {
		if p != nil && p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData
		}
	}
	return nil
}

func (r *GenerateContentResponse) GroundingChunks() []*GroundingChunk {
	c := r.first()
	if c == nil || c.GroundingMetadata == nil {
		return nil
	}
	return c.GroundingMetadata.GroundingChunks
}
