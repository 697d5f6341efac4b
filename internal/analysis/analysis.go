// Package analysis annotates summaries with keywords, coarse topics and a
// sentiment label. All of it is lexical; no model is leased.
package analysis

import (
	"sort"
	"strings"
	"unicode"

	"summaryd/pkg/types"
)

const (
	keywordInputCap   = 5000
	sentimentInputCap = 512
	maxKeywords       = 10
	maxTopics         = 5
	minTopicSentence  = 20
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
		"at", "by", "for", "with", "about", "against", "between", "into",
		"through", "during", "before", "after", "above", "below", "to",
		"from", "up", "down", "in", "out", "on", "off", "over", "under",
		"again", "further", "once", "here", "there", "all", "any", "both",
		"each", "few", "more", "most", "other", "some", "such", "no", "nor",
		"not", "only", "own", "same", "so", "than", "too", "very", "can",
		"will", "just", "should", "now", "is", "are", "was", "were", "be",
		"been", "being", "have", "has", "had", "having", "do", "does", "did",
		"doing", "would", "could", "it", "its", "this", "that", "these",
		"those", "of", "as", "he", "she", "they", "we", "you", "i", "his",
		"her", "their", "our", "your", "my", "them", "him", "what", "which",
		"who", "whom", "how", "why", "where",
	} {
		stopwords[w] = struct{}{}
	}
}

var positiveWords = map[string]struct{}{}
var negativeWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"good", "great", "excellent", "positive", "success", "successful",
		"improve", "improved", "improvement", "gain", "gains", "benefit",
		"beneficial", "strong", "growth", "win", "winning", "effective",
		"progress", "achievement", "advantage", "best", "better", "happy",
		"optimistic", "promising", "robust", "breakthrough",
	} {
		positiveWords[w] = struct{}{}
	}
	for _, w := range []string{
		"bad", "poor", "negative", "failure", "failed", "fail", "decline",
		"loss", "losses", "weak", "risk", "risks", "problem", "problems",
		"crisis", "damage", "threat", "worst", "worse", "concern",
		"concerns", "drop", "fall", "deficit", "harm", "danger", "warning",
	} {
		negativeWords[w] = struct{}{}
	}
}

// Keywords returns the most frequent non-stopword terms of the text,
// most frequent first, ties broken alphabetically.
func Keywords(text string) []string {
	if len(text) > keywordInputCap {
		text = text[:keywordInputCap]
	}
	freq := make(map[string]int)
	for _, w := range words(text) {
		if len(w) < 3 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		freq[w]++
	}
	keys := make([]string, 0, len(freq))
	for w := range freq {
		keys = append(keys, w)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > maxKeywords {
		keys = keys[:maxKeywords]
	}
	return keys
}

// Topics groups substantial sentences by their dominant keyword. Fewer than
// two usable sentences yields no topics.
func Topics(text string) []types.Topic {
	sentences := splitSentences(text)
	usable := sentences[:0]
	for _, s := range sentences {
		if len(strings.TrimSpace(s)) > minTopicSentence {
			usable = append(usable, s)
		}
	}
	if len(usable) < 2 {
		return nil
	}

	groups := make(map[string]int)
	order := []string{}
	for _, s := range usable {
		kw := Keywords(s)
		if len(kw) == 0 {
			continue
		}
		name := kw[0]
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return groups[order[i]] > groups[order[j]]
	})
	if len(order) > maxTopics {
		order = order[:maxTopics]
	}
	out := make([]types.Topic, 0, len(order))
	for i, name := range order {
		out = append(out, types.Topic{TopicID: i, Count: groups[name], Name: name})
	}
	return out
}

// Sentiment scores the opening of the text against a small valence lexicon.
// Text with no valence words is NEUTRAL at 0.5.
func Sentiment(text string) types.Sentiment {
	if len(text) > sentimentInputCap {
		text = text[:sentimentInputCap]
	}
	pos, neg := 0, 0
	for _, w := range words(text) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return types.Sentiment{Label: "NEUTRAL", Score: 0.5}
	}
	score := float64(pos) / float64(total)
	switch {
	case score > 0.6:
		return types.Sentiment{Label: "POSITIVE", Score: score}
	case score < 0.4:
		return types.Sentiment{Label: "NEGATIVE", Score: 1 - score}
	default:
		return types.Sentiment{Label: "NEUTRAL", Score: 0.5}
	}
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
