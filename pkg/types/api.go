package types

// SummarizeRequest is the payload for POST /summarize/text.
type SummarizeRequest struct {
	// Normalized plain text to summarize.
	// example: Long article text ...
	Text string `json:"text" example:"Long article text ..."`
	// Summary style: brief (~20%), detailed (~35%), comprehensive (~50%).
	// example: detailed
	Style string `json:"summary_style,omitempty" example:"detailed"`
	// Summary type: comprehensive, bullet_points, story.
	// example: comprehensive
	Type string `json:"summary_type,omitempty" example:"comprehensive"`
	// Minimum summary length in words. Zero means the configured default.
	// example: 50
	MinLength int `json:"min_length,omitempty" example:"50"`
	// Maximum summary length in words. Zero means the configured default.
	// example: 150
	MaxLength int `json:"max_length,omitempty" example:"150"`
	// Optional instruction replacing the style/type template on every pass.
	CustomPrompt string `json:"custom_prompt,omitempty"`
	// Target language for model selection.
	// example: en
	Language string `json:"language,omitempty" example:"en"`
	// Where the text came from (text, file, url, video). Informational.
	// example: text
	SourceType string `json:"source_type,omitempty" example:"text"`
}

// Topic is one entry of the topic annotation.
type Topic struct {
	// example: 0
	TopicID int `json:"topic_id" example:"0"`
	// Number of sentences grouped under the topic.
	// example: 4
	Count int `json:"count" example:"4"`
	// example: climate policy
	Name string `json:"name" example:"climate policy"`
}

// Sentiment is the sentiment annotation of a summary.
type Sentiment struct {
	// POSITIVE, NEGATIVE or NEUTRAL.
	// example: NEUTRAL
	Label string `json:"label" example:"NEUTRAL"`
	// example: 0.5
	Score float64 `json:"score" example:"0.5"`
}

// SummarizeResponse is returned by POST /summarize/text.
type SummarizeResponse struct {
	Summary   string          `json:"summary"`
	Keywords  []string        `json:"keywords"`
	Topics    []Topic         `json:"topics"`
	Sentiment Sentiment       `json:"sentiment"`
	Metadata  SummaryMetadata `json:"metadata"`
}

// QARequest is the payload for POST /qa/ask.
type QARequest struct {
	// example: Who wrote the report?
	Question string `json:"question" example:"Who wrote the report?"`
	// Context the answer must be grounded in (summary and/or source text).
	Context string `json:"context"`
	// example: en
	Language string `json:"language,omitempty" example:"en"`
}

// QAPair is one prior exchange supplied with a conversational question.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ConversationQARequest is the payload for POST /qa/conversation.
type ConversationQARequest struct {
	Question string   `json:"question"`
	Context  string   `json:"context"`
	History  []QAPair `json:"conversation_history,omitempty"`
	// example: en
	Language string `json:"language,omitempty" example:"en"`
}

// QAMetadata carries sizing details of one interaction.
type QAMetadata struct {
	// example: 4
	QuestionWords int `json:"question_length" example:"4"`
	// example: 320
	ContextWords int `json:"context_length" example:"320"`
	// example: 12
	AnswerWords int `json:"answer_length" example:"12"`
	// Exchanges included in the prompt.
	// example: 2
	ConversationTurns int `json:"conversation_turns,omitempty" example:"2"`
	// example: en
	Language string `json:"language" example:"en"`
	// example: roberta-qa
	ModelUsed string `json:"model_used" example:"roberta-qa"`
	// model or overlap, depending on how confidence was derived.
	// example: overlap
	ConfidenceSource string `json:"confidence_source" example:"overlap"`
}

// QAResponse is returned by the /qa endpoints.
type QAResponse struct {
	// Unique id of the interaction.
	// example: 7b0d9d4e-3f6e-4b5d-9a3e-2f3a1c2d4e5f
	ID string `json:"id"`
	// example: The committee chair wrote it.
	Answer string `json:"answer"`
	// Confidence in [0,1], rounded to four decimals.
	// example: 0.8312
	Confidence float64 `json:"confidence" example:"0.8312"`
	// Low (<0.6), Medium (0.6-0.8) or High (>=0.8).
	// example: High
	ConfidenceBucket string `json:"confidence_bucket" example:"High"`
	// Context span the answer is grounded in.
	SupportingText string `json:"supporting_text"`
	// Byte offsets of the supporting span within the (possibly truncated) context.
	StartPosition int `json:"start_position"`
	EndPosition   int `json:"end_position"`
	// Unix timestamp of the interaction.
	// example: 1700000000
	Timestamp int64      `json:"timestamp" example:"1700000000"`
	Metadata  QAMetadata `json:"metadata"`
}

// BatchQARequest is the payload for POST /qa/batch.
type BatchQARequest struct {
	Questions []string `json:"questions"`
	Context   string   `json:"context"`
	// example: en
	Language string `json:"language,omitempty" example:"en"`
}

// BatchQAItem is one answer of a batch response. Failed questions carry a
// zero confidence and an empty supporting span instead of failing the batch.
type BatchQAItem struct {
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Confidence     float64 `json:"confidence"`
	SupportingText string  `json:"supporting_text"`
}

// BatchQAResponse is returned by POST /qa/batch.
type BatchQAResponse struct {
	Results           []BatchQAItem `json:"results"`
	TotalQuestions    int           `json:"total_questions"`
	SuccessfulAnswers int           `json:"successful_answers"`
	Language          string        `json:"language"`
}

// SuggestedQuestionsResponse is returned by POST /qa/suggested-questions.
type SuggestedQuestionsResponse struct {
	SuggestedQuestions []string `json:"suggested_questions"`
	ContextWords       int      `json:"context_length"`
	TotalSuggestions   int      `json:"total_suggestions"`
}
