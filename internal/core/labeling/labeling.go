// Package labeling is the boundary to the generative text classifier. The
// pipeline only depends on the Service interface; tests inject stubs and the
// OpenAI implementation lives in openai.go.
package labeling

import "context"

// TOCAnalysis is the per-page verdict used during TOC detection. A page only
// counts toward a TOC region when both flags are true.
type TOCAnalysis struct {
	IsTOCPage                      bool `json:"is_toc_page"`
	HasChapterNamesWithPageNumbers bool `json:"has_chapter_names_with_page_numbers"`
}

// TitleAndRelevance is the generated title plus the on-topic flag for one
// chunk. The title is intended to be at most five words; that intent is not
// enforced.
type TitleAndRelevance struct {
	GeneratedTitle string `json:"generated_title"`
	IsRelevant     bool   `json:"is_relevant"`
}

// ChapterEntry is one (chapter name, 1-based start page) pair extracted from
// a TOC region.
type ChapterEntry struct {
	Chapter   string `json:"chapter"`
	StartPage int    `json:"start_page"`
}

// Classification assigns one topic id with a confidence in [0,1].
type Classification struct {
	TopicID    int64   `json:"topic_id"`
	Confidence float64 `json:"confidence"`
}

// TopicOption is one entry of the topic vocabulary handed to the classifier.
type TopicOption struct {
	ID    int64
	Label string
}

// Service is the labeling capability consumed by the chunking pipeline.
// Malformed or unparsable responses surface as errors; the caller decides
// which calls fail soft and which fail hard.
type Service interface {
	AnalyzePageForTOC(ctx context.Context, pageContent string, pageNumber int) (TOCAnalysis, error)
	GenerateTitleAndRelevance(ctx context.Context, text string) (TitleAndRelevance, error)
	ExtractChapters(ctx context.Context, tocText string) ([]ChapterEntry, error)
	ClassifyText(ctx context.Context, text string, topics []TopicOption) (Classification, error)
}
