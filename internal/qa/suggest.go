package qa

import (
	"strings"

	"summaryd/internal/chunker"
	"summaryd/internal/core"
	"summaryd/pkg/types"
)

const defaultSuggestions = 5

// cueQuestions maps context cue words to questions worth asking about them.
var cueQuestions = []struct {
	cues      []string
	questions []string
}{
	{
		cues:      []string{"when", "date", "year", "time", "schedule", "deadline"},
		questions: []string{"When did the main events take place?"},
	},
	{
		cues:      []string{"who", "author", "president", "ceo", "director", "founder", "team"},
		questions: []string{"Who are the key people involved?"},
	},
	{
		cues:      []string{"where", "location", "country", "city", "region"},
		questions: []string{"Where do the events take place?"},
	},
	{
		cues:      []string{"cost", "price", "budget", "revenue", "funding", "million", "billion"},
		questions: []string{"What are the financial figures mentioned?"},
	},
	{
		cues:      []string{"because", "cause", "reason", "due to", "result"},
		questions: []string{"What caused the main events described?"},
	},
	{
		cues:      []string{"conclusion", "recommend", "suggest", "propose", "plan"},
		questions: []string{"What conclusions or recommendations are made?"},
	},
}

// genericQuestions always apply regardless of content.
var genericQuestions = []string{
	"What is the main topic of this text?",
	"What are the key points discussed?",
	"What important details are mentioned?",
}

// Suggest proposes questions a reader might ask about the context. Cue-based
// questions come first, generics fill the remainder, duplicates are dropped.
// The response carries at most numQuestions entries while TotalSuggestions
// reports the full pool before the cap.
func Suggest(contextText string, numQuestions int) (types.SuggestedQuestionsResponse, error) {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		return types.SuggestedQuestionsResponse{}, core.InvalidInput("context must not be empty")
	}
	if numQuestions <= 0 {
		numQuestions = defaultSuggestions
	}
	lower := strings.ToLower(contextText)

	seen := make(map[string]struct{})
	var pool []string
	add := func(q string) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		pool = append(pool, q)
	}

	for _, cq := range cueQuestions {
		for _, cue := range cq.cues {
			if strings.Contains(lower, cue) {
				for _, q := range cq.questions {
					add(q)
				}
				break
			}
		}
	}
	for _, q := range genericQuestions {
		add(q)
	}

	out := pool
	if len(out) > numQuestions {
		out = out[:numQuestions]
	}
	return types.SuggestedQuestionsResponse{
		SuggestedQuestions: out,
		ContextWords:       chunker.CountWords(contextText),
		TotalSuggestions:   len(pool),
	}, nil
}
