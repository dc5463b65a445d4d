package chunking

import (
	"context"
	"testing"

	"book-chunker/internal/core/labeling"
	"book-chunker/internal/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTopics = []model.Topic{
	{TopicID: 1, Topic: "Mathematics"},
	{TopicID: 2, Topic: "History"},
}

func TestTitleAndRelevanceFailsSoft(t *testing.T) {
	labeler := &stubLabeler{
		title: func(context.Context, string) (labeling.TitleAndRelevance, error) {
			return labeling.TitleAndRelevance{}, errBoom
		},
	}
	e := NewEnricher(labeler, 700, true)

	result := e.TitleAndRelevance(context.Background(), "some text")

	assert.Equal(t, "", result.GeneratedTitle)
	assert.False(t, result.IsRelevant)
}

func TestClassifyKnownTopic(t *testing.T) {
	labeler := &stubLabeler{
		classify: func(_ context.Context, _ string, topics []labeling.TopicOption) (labeling.Classification, error) {
			require.Len(t, topics, 2)
			assert.Equal(t, "Mathematics", topics[0].Label)
			return labeling.Classification{TopicID: 2, Confidence: 0.87}, nil
		},
	}
	e := NewEnricher(labeler, 700, true)

	topicID, confidence, err := e.Classify(context.Background(), "text", testTopics)
	require.NoError(t, err)
	require.NotNil(t, topicID)
	assert.Equal(t, int64(2), *topicID)
	assert.Equal(t, 0.87, confidence)
}

func TestClassifyUnknownTopicKeepsConfidence(t *testing.T) {
	labeler := &stubLabeler{
		classify: func(context.Context, string, []labeling.TopicOption) (labeling.Classification, error) {
			return labeling.Classification{TopicID: 99, Confidence: 0.42}, nil
		},
	}
	e := NewEnricher(labeler, 700, true)

	topicID, confidence, err := e.Classify(context.Background(), "text", testTopics)
	require.NoError(t, err)
	assert.Nil(t, topicID)
	assert.Equal(t, 0.42, confidence)
}

func TestClassifyStrictPropagatesError(t *testing.T) {
	labeler := &stubLabeler{
		classify: func(context.Context, string, []labeling.TopicOption) (labeling.Classification, error) {
			return labeling.Classification{}, errBoom
		},
	}

	e := NewEnricher(labeler, 700, true)
	_, _, err := e.Classify(context.Background(), "text", testTopics)
	assert.ErrorIs(t, err, errBoom)
}

func TestClassifyLenientDegrades(t *testing.T) {
	labeler := &stubLabeler{
		classify: func(context.Context, string, []labeling.TopicOption) (labeling.Classification, error) {
			return labeling.Classification{}, errBoom
		},
	}

	e := NewEnricher(labeler, 700, false)
	topicID, confidence, err := e.Classify(context.Background(), "text", testTopics)
	require.NoError(t, err)
	assert.Nil(t, topicID)
	assert.Zero(t, confidence)
}
