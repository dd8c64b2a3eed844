package entity

type SentimentScore string

const (
	SentimentPositive SentimentScore = "POSITIVE"
	SentimentNegative SentimentScore = "NEGATIVE"
	SentimentNeutral  SentimentScore = "NEUTRAL"
)

func (s SentimentScore) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// SentimentDetails percentages are expected to sum to 100 but are not checked locally.
type SentimentDetails struct {
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
}

func (d SentimentDetails) Total() float64 {
	return d.PositivePercentage + d.NegativePercentage + d.NeutralPercentage
}

type SentimentAnalysis struct {
	Score         SentimentScore   `json:"score"`
	Details       SentimentDetails `json:"details"`
	ExampleQuotes []string         `json:"example_quotes"`
}

type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingChunk is a search citation. Chunks without Web are skipped when rendered.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

type AnalysisResult struct {
	Summary         string            `json:"summary"`
	RelatedKeywords []string          `json:"related_keywords"`
	Sentiment       SentimentAnalysis `json:"sentiment"`
	Sources         []GroundingChunk  `json:"sources"`
}

// Clone returns a deep copy so that favorites keep their own snapshot.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	out.RelatedKeywords = cloneStrings(r.RelatedKeywords)
	out.Sentiment.ExampleQuotes = cloneStrings(r.Sentiment.ExampleQuotes)
	out.Sources = make([]GroundingChunk, 0, len(r.Sources))
	for _, src := range r.Sources {
		if src.Web != nil {
			web := *src.Web
			src.Web = &web
		}
		out.Sources = append(out.Sources, src)
	}
	return &out
}

// cloneStrings never returns nil, so lists encode as [] rather than null.
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
