package summarize

import (
	"fmt"
	"math"
	"strings"
)

// Summary styles and their share of the source length.
const (
	StyleBrief         = "brief"
	StyleDetailed      = "detailed"
	StyleComprehensive = "comprehensive"
)

// Summary types.
const (
	TypeComprehensive = "comprehensive"
	TypeBulletPoints  = "bullet_points"
	TypeStory         = "story"
)

// wordsToTokens is the rough English words-to-tokens ratio used when sizing
// generation budgets for the backends.
const wordsToTokens = 1.33

// styleShare returns the fraction of the source length a style targets.
func styleShare(style string) float64 {
	switch style {
	case StyleBrief:
		return 0.20
	case StyleComprehensive:
		return 0.50
	default: // detailed
		return 0.35
	}
}

// toTokens converts a word budget to a token budget with a small floor.
func toTokens(words int) int {
	t := int(float64(words) * wordsToTokens)
	if t < 8 {
		return 8
	}
	return t
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// typeTemplate returns the instruction for a summary type.
func typeTemplate(sumType string) string {
	switch sumType {
	case TypeBulletPoints:
		return "Summarize the following text as concise bullet points covering the key facts."
	case TypeStory:
		return "Summarize the following text as a flowing narrative that preserves the order of events."
	default:
		return "Write a clear, comprehensive summary of the following text."
	}
}

// buildInstruction composes the generation instruction for one pass. A custom
// prompt replaces the style/type template uniformly on every chunk and every
// reduction pass.
func buildInstruction(style, sumType, customPrompt, language string, minWords, maxWords int) string {
	if strings.TrimSpace(customPrompt) != "" {
		return strings.TrimSpace(customPrompt)
	}
	var b strings.Builder
	b.WriteString(typeTemplate(sumType))
	fmt.Fprintf(&b, " Use between %d and %d words.", minWords, maxWords)
	if language != "" && language != "en" {
		fmt.Fprintf(&b, " Respond in %s.", language)
	}
	_ = style // the style acts through the length targets, not the wording
	return b.String()
}

// CompressionRatio returns the percentage of words removed, two decimals.
func CompressionRatio(origWords, summaryWords int) float64 {
	if origWords == 0 {
		return 0
	}
	ratio := float64(origWords-summaryWords) / float64(origWords) * 100
	return math.Round(ratio*100) / 100
}

// ReadingTimeMinutes estimates reading time at 200 words per minute.
func ReadingTimeMinutes(words int) int {
	m := int(math.Round(float64(words) / 200))
	if m < 1 {
		return 1
	}
	return m
}
