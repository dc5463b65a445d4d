package chunking

import (
	"context"

	"book-chunker/internal/core/labeling"
	"book-chunker/internal/database/model"
	"book-chunker/pkg/logger"
)

// Enricher wraps the labeling calls made per chunk. Title/relevance fails
// soft: labeler errors yield the sentinel (no title, not relevant) so one bad
// call never sinks a chunk. Topic classification fails hard by default; that
// asymmetry is inherited behavior and is switchable via strict.
type Enricher struct {
	labeler  labeling.Service
	maxWords int
	strict   bool
}

func NewEnricher(labeler labeling.Service, maxWords int, strict bool) *Enricher {
	return &Enricher{labeler: labeler, maxWords: maxWords, strict: strict}
}

// Normalize bounds chunk text for classification prompts.
func (e *Enricher) Normalize(text string) string {
	return NormalizeText(text, e.maxWords)
}

// TitleAndRelevance requests a generated title and relevance flag. On labeler
// failure it logs and returns the sentinel result instead of an error.
func (e *Enricher) TitleAndRelevance(ctx context.Context, text string) labeling.TitleAndRelevance {
	result, err := e.labeler.GenerateTitleAndRelevance(ctx, text)
	if err != nil {
		logger.Error(err, "enrich: title generation failed, using sentinel")
		return labeling.TitleAndRelevance{GeneratedTitle: "", IsRelevant: false}
	}
	return result
}

// Classify assigns a topic id and confidence against the fetched vocabulary.
// A returned id outside the vocabulary persists as a nil topic id while the
// confidence is kept as returned. In strict mode labeler failures propagate;
// otherwise they degrade to (nil, 0).
func (e *Enricher) Classify(ctx context.Context, text string, topics []model.Topic) (*int64, float64, error) {
	options := make([]labeling.TopicOption, 0, len(topics))
	known := make(map[int64]bool, len(topics))
	for _, t := range topics {
		options = append(options, labeling.TopicOption{ID: t.TopicID, Label: t.Topic})
		known[t.TopicID] = true
	}

	result, err := e.labeler.ClassifyText(ctx, text, options)
	if err != nil {
		if e.strict {
			return nil, 0, err
		}
		logger.Error(err, "enrich: classification failed, storing unclassified")
		return nil, 0, nil
	}

	var topicID *int64
	if known[result.TopicID] {
		id := result.TopicID
		topicID = &id
	}
	return topicID, result.Confidence, nil
}
