package labeling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"book-chunker/config"
	"book-chunker/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIService implements Service using OpenAI chat completions with
// JSON-schema structured outputs.
type OpenAIService struct {
	client openai.Client
	model  string
}

// NewOpenAIService builds the labeling client from the openai config section.
func NewOpenAIService() (*OpenAIService, error) {
	key := config.Cfg.OpenAI.Key
	if key == "" {
		return nil, errors.New("missing openai key")
	}
	return &OpenAIService{
		client: openai.NewClient(option.WithAPIKey(key)),
		model:  config.Cfg.OpenAI.Model,
	}, nil
}

// complete performs one structured chat completion and unmarshals the model's
// JSON payload into out.
func (s *OpenAIService) complete(ctx context.Context, schemaName string, schema map[string]any, system, user string, out any) error {
	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaFormat{
				Name:   schemaName,
				Strict: true,
				Schema: schema,
			},
		},
	}

	var resp chatCompletionResponse
	if err := s.client.Post(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return errors.New(resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return errors.New("no completion choices returned")
	}
	if resp.Choices[0].Message.Refusal != "" {
		return fmt.Errorf("model refusal: %s", resp.Choices[0].Message.Refusal)
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("unparsable completion payload: %w", err)
	}
	return nil
}

func objectSchema(props map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func (s *OpenAIService) AnalyzePageForTOC(ctx context.Context, pageContent string, pageNumber int) (TOCAnalysis, error) {
	schema := objectSchema(map[string]any{
		"is_toc_page":                         map[string]any{"type": "boolean"},
		"has_chapter_names_with_page_numbers": map[string]any{"type": "boolean"},
	}, []string{"is_toc_page", "has_chapter_names_with_page_numbers"})

	var out TOCAnalysis
	err := s.complete(ctx, "toc_analysis", schema,
		"Analyze this page for table of contents content. Look for chapter listings WITH their corresponding page numbers. A valid TOC must have both chapter names and their respective page numbers.",
		fmt.Sprintf("Page %d content:\n\n%s...", pageNumber, pageContent),
		&out,
	)
	if err != nil {
		return TOCAnalysis{}, err
	}
	return out, nil
}

func (s *OpenAIService) GenerateTitleAndRelevance(ctx context.Context, text string) (TitleAndRelevance, error) {
	schema := objectSchema(map[string]any{
		"generated_title": map[string]any{"type": "string"},
		"is_relevant":     map[string]any{"type": "boolean"},
	}, []string{"generated_title", "is_relevant"})

	var out TitleAndRelevance
	err := s.complete(ctx, "title_and_relevance", schema,
		"Generate a title for the following in the same language as the text and check if the text is relevant. The title should be short and concise (maximum 5 words). Relevant text means it does not contain a glossary, table of contents, or any other irrelevant content. Respond with the generated title and 'True' for relevant or 'False' for not relevant",
		fmt.Sprintf("Text section:\n%s...", text),
		&out,
	)
	if err != nil {
		return TitleAndRelevance{}, err
	}
	return out, nil
}

type chapterList struct {
	Chapters []ChapterEntry `json:"chapters"`
}

func (s *OpenAIService) ExtractChapters(ctx context.Context, tocText string) ([]ChapterEntry, error) {
	schema := objectSchema(map[string]any{
		"chapters": map[string]any{
			"type": "array",
			"items": objectSchema(map[string]any{
				"chapter":    map[string]any{"type": "string"},
				"start_page": map[string]any{"type": "integer"},
			}, []string{"chapter", "start_page"}),
		},
	}, []string{"chapters"})

	system := "Extract the main chapter names and their starting page numbers from the text. " +
		"Select approximately 15-30 important chapters, evenly distributed throughout the book. " +
		"Each chapter should be meaningful, concise, and listed as 'chapter' (string) and 'start_page' (integer). " +
		"Return the result as a structured list with 15 or more items. " +
		"Ensure that the selected chapters cover the entire span of the book, from beginning to end."

	var out chapterList
	if err := s.complete(ctx, "toc_contents", schema, system, tocText, &out); err != nil {
		return nil, err
	}
	return out.Chapters, nil
}

func (s *OpenAIService) ClassifyText(ctx context.Context, text string, topics []TopicOption) (Classification, error) {
	var categories strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&categories, "%d. %s\n", t.ID, t.Label)
	}

	system := "You are an assistant that classifies texts. " +
		"Classify the following text into one of the given categories and return only the ID and the match percentage.\n\n" +
		fmt.Sprintf("Categories:\n%s\n", categories.String()) +
		"Response format: ID,Percentage (where 1 represents 100%)"

	schema := objectSchema(map[string]any{
		"topic_id":   map[string]any{"type": "integer"},
		"confidence": map[string]any{"type": "number"},
	}, []string{"topic_id", "confidence"})

	var out Classification
	if err := s.complete(ctx, "classification_result", schema, system, text, &out); err != nil {
		logger.WithFields(map[string]interface{}{
			"model": s.model,
			"error": err,
		}).Errorf("openai: classification failed")
		return Classification{}, err
	}
	return out, nil
}
