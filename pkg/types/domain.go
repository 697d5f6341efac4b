package types

// ModelSpec describes a model reachable through one of the supported backend
// families. Specs are declared in configuration and validated at startup.
type ModelSpec struct {
	// Stable identifier for the model.
	// example: distilbart-cnn
	ID string `json:"id" yaml:"id" toml:"id" example:"distilbart-cnn"`
	// Backend family used to talk to the model (llama, openai).
	// example: llama
	Family string `json:"family" yaml:"family" toml:"family" example:"llama"`
	// Task this model serves (summarize, qa).
	// example: summarize
	Task string `json:"task" yaml:"task" toml:"task" example:"summarize"`
	// Base URL of the model server.
	// example: http://127.0.0.1:8081
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url" example:"http://127.0.0.1:8081"`
	// Optional API key sent as a bearer token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key" toml:"api_key"`
	// Language this model is preferred for; empty means any.
	// example: en
	Language string `json:"language,omitempty" yaml:"language" toml:"language" example:"en"`
	// Input budget in words the model can accept per call.
	// example: 1000
	CtxBudgetWords int `json:"ctx_budget_words,omitempty" yaml:"ctx_budget_words" toml:"ctx_budget_words" example:"1000"`
	// Estimated resident memory in MB once loaded.
	// example: 1200
	MemMB int `json:"mem_mb,omitempty" yaml:"mem_mb" toml:"mem_mb" example:"1200"`
}

// Document is a normalized input handed over by a content extractor.
// It lives for the duration of one request.
type Document struct {
	// Normalized plain text.
	Text string `json:"text"`
	// Where the text came from (text, file, url, video).
	// example: text
	SourceType string `json:"source_type" example:"text"`
	// Word count of the normalized text.
	// example: 1250
	WordCount int `json:"word_count" example:"1250"`
	// BCP-47-ish language tag, best effort.
	// example: en
	Language string `json:"language,omitempty" example:"en"`
}

// SummaryMetadata describes how a summary was produced.
type SummaryMetadata struct {
	// Word count of the source text.
	// example: 1250
	OriginalWordCount int `json:"original_word_count" example:"1250"`
	// Word count of the produced summary.
	// example: 180
	SummaryWordCount int `json:"summary_word_count" example:"180"`
	// Percentage of words removed, rounded to two decimals.
	// example: 85.6
	CompressionRatio float64 `json:"compression_ratio" example:"85.6"`
	// Estimated reading time of the summary in minutes (200 wpm).
	// example: 1
	ReadingTimeMinutes int `json:"reading_time_minutes" example:"1"`
	// Number of chunks the source was split into.
	// example: 13
	ChunkCount int `json:"chunk_count" example:"13"`
	// Chunks dropped after a failed retry.
	// example: 0
	SkippedChunkCount int `json:"skipped_chunk_count" example:"0"`
	// Reduction passes run to meet the length bound.
	// example: 1
	ReductionPasses int `json:"reduction_passes" example:"1"`
	// True when the input was already at or below the requested minimum and
	// was returned unmodified.
	OriginalReturned bool `json:"original_returned,omitempty"`
	// Style the summary was produced with.
	// example: detailed
	Style string `json:"summary_style" example:"detailed"`
	// True when a custom prompt replaced the style/type template.
	CustomPromptUsed bool `json:"custom_prompt_used,omitempty"`
}

// SummaryResult is the core engine output before analysis annotation.
type SummaryResult struct {
	Summary  string          `json:"summary"`
	Metadata SummaryMetadata `json:"metadata"`
}
