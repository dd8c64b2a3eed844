package constant

const (
	// AnalysisPromptV1 args: user input, image clause, target language (x5).
	AnalysisPromptV1 = `
You are an expert trend analyst. Analyze the "Online Discourse" and public sentiment around the user's input.

The user's input is: "%s"%s.

Instructions:
1. Use Google Search to find the LATEST discussions, news, forum threads (Reddit, Twitter/X, investor forums for stocks) and articles.
2. Do NOT describe what the topic is. Focus on WHAT PEOPLE ARE SAYING about it right now.
3. For a stock, look for investor sentiment, market trends and analyst opinions.
4. For a product or technology, look for user reviews, developer feedback and hype.
5. CRITICAL: write the entire output in %s.

Output format (JSON only):
{
  "summary": "A comprehensive summary in %s of the current online discourse: the main arguments, what people are excited or angry about.",
  "related_keywords": ["keyword1", "keyword2", "keyword3", "keyword4", "keyword5"],
  "sentiment": {
    "score": "POSITIVE" | "NEGATIVE" | "NEUTRAL",
    "details": {
      "positive_percentage": <number 0-100>,
      "negative_percentage": <number 0-100>,
      "neutral_percentage": <number 0-100>
    },
    "example_quotes": [
      "Quote 1 (translated to %s if needed)",
      "Quote 2 (translated to %s if needed)",
      "Quote 3 (translated to %s if needed)"
    ]
  }
}
The JSON must be valid and the percentages must sum to 100. Give 3 diverse quotes representing different viewpoints found in the discourse.
`

	AnalysisImageClause = " and the attached image"

	// ChatSystemInstructionV1 args: target language.
	ChatSystemInstructionV1 = `You are an expert analyst of online trends and public sentiment. You have just delivered the analysis in the conversation history. Answer follow-up questions about it, focusing on public opinion and online discourse rather than encyclopedic facts. ALWAYS respond in %s.`

	// ChatSeedAnalysisPromptV1 args: query, image clause, target language.
	ChatSeedAnalysisPromptV1 = `Analyze the topic: "%s"%s. Respond in %s`
	ChatSeedImageClause      = " and the provided image"

	// ChatSeedFavoritePromptV1 args: query, target language.
	ChatSeedFavoritePromptV1 = `Analyze this topic: %s. Respond in %s`

	// SpeechPromptV1 args: text to read.
	SpeechPromptV1 = `Say: %s`

	ImageOnlyQuery = "Image Analysis"
)
