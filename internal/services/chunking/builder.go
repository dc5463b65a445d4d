package chunking

import (
	"context"
	"fmt"
	"strings"

	"book-chunker/internal/database/model"
	"book-chunker/pkg/logger"
)

// segment is one positional page group [StartPage, EndPage], 1-based
// inclusive.
type segment struct {
	StartPage int
	EndPage   int
}

// segmentBounds splits totalPages into ceil(totalPages/nChunks)-page groups
// in ascending page order, covering every page exactly once.
func segmentBounds(totalPages, nChunks int) []segment {
	if totalPages <= 0 || nChunks <= 0 {
		return nil
	}
	chunkSize := (totalPages + nChunks - 1) / nChunks
	segments := make([]segment, 0, nChunks)
	for start := 1; start <= totalPages; start += chunkSize {
		end := start + chunkSize - 1
		if end > totalPages {
			end = totalPages
		}
		segments = append(segments, segment{StartPage: start, EndPage: end})
	}
	return segments
}

// assembleSpan joins the page texts of a segment, strips null bytes and
// replaces invalid encoding sequences.
func assembleSpan(doc PageSource, startPage, endPage int) string {
	var b strings.Builder
	for page := startPage; page <= endPage; page++ {
		b.WriteString(doc.PageText(page))
		b.WriteString("\n")
	}
	content := strings.ReplaceAll(b.String(), "\x00", "")
	return strings.ToValidUTF8(content, "?")
}

func topicLabel(topicID *int64) string {
	if topicID == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *topicID)
}

// chapterChunking persists one chunk per resolved chapter, in the order the
// labeler returned them. Chapters from a confirmed TOC are assumed relevant;
// the chapter name doubles as the title, so only topic classification runs
// per chunk. A step entry is appended after every chapter.
func (p *Pipeline) chapterChunking(ctx context.Context, doc DocumentSource, bookID int64, chapters []Chapter) []string {
	steps := []string{}

	topics, err := p.store.FetchTopics(ctx)
	if err != nil {
		logger.Error(err, "chunking: fetching topics failed for book_id %d", bookID)
		return append(steps, fmt.Sprintf("Error during intelligent chunking: %v", err))
	}

	for _, chapter := range chapters {
		content, err := SpanText(doc, chapter.StartPage, chapter.EndPage)
		if err != nil {
			logger.Error(err, "chunking: chapter %q has an unusable span", chapter.Name)
			return append(steps, fmt.Sprintf("Error during intelligent chunking: %v", err))
		}

		topicID, confidence, err := p.enricher.Classify(ctx, p.enricher.Normalize(content), topics)
		if err != nil {
			logger.Error(err, "chunking: classification failed for chapter %q", chapter.Name)
			return append(steps, fmt.Sprintf("Error during intelligent chunking: %v", err))
		}

		chunk := &model.Chunk{
			BookID:              bookID,
			StartPage:           chapter.StartPage,
			EndPage:             chapter.EndPage,
			IsRelevant:          true,
			ChapterName:         chapter.Name,
			Content:             content,
			TopicID:             topicID,
			RelevancePercentage: confidence,
			UsageCount:          0,
		}
		if err := p.store.InsertChunk(ctx, chunk); err != nil {
			logger.Error(err, "chunking: insert failed for chapter %q", chapter.Name)
			return append(steps, fmt.Sprintf("Error during intelligent chunking: %v", err))
		}

		steps = append(steps, fmt.Sprintf(
			"Chapter Report [Chapter: %s] | Pages: %d-%d | Topic ID: %s | Confidence: %.2f",
			chapter.Name, chapter.StartPage, chapter.EndPage, topicLabel(topicID), confidence,
		))
	}

	return append(steps, "Intelligent chunking process completed.")
}

// standardChunking is the positional fallback: fixed-count page groups, with
// relevance decided per chunk by the enricher instead of assumed.
func (p *Pipeline) standardChunking(ctx context.Context, doc DocumentSource, bookID int64) []string {
	steps := []string{fmt.Sprintf("PDF chunking into %d chunks.", p.opts.FallbackChunks)}

	topics, err := p.store.FetchTopics(ctx)
	if err != nil {
		logger.Error(err, "chunking: fetching topics failed for book_id %d", bookID)
		return append(steps, fmt.Sprintf("Error during standard chunking: %v", err))
	}

	for _, seg := range segmentBounds(doc.NumPages(), p.opts.FallbackChunks) {
		content := assembleSpan(doc, seg.StartPage, seg.EndPage)
		normalized := p.enricher.Normalize(content)

		title := p.enricher.TitleAndRelevance(ctx, normalized)

		topicID, confidence, err := p.enricher.Classify(ctx, normalized, topics)
		if err != nil {
			logger.Error(err, "chunking: classification failed for pages %d-%d", seg.StartPage, seg.EndPage)
			return append(steps, fmt.Sprintf("Error during standard chunking: %v", err))
		}

		chunk := &model.Chunk{
			BookID:              bookID,
			StartPage:           seg.StartPage,
			EndPage:             seg.EndPage,
			IsRelevant:          title.IsRelevant,
			ChapterName:         title.GeneratedTitle,
			Content:             content,
			TopicID:             topicID,
			RelevancePercentage: confidence,
			UsageCount:          0,
		}
		if err := p.store.InsertChunk(ctx, chunk); err != nil {
			logger.Error(err, "chunking: insert failed for pages %d-%d", seg.StartPage, seg.EndPage)
			return append(steps, fmt.Sprintf("Error during standard chunking: %v", err))
		}

		steps = append(steps, fmt.Sprintf(
			"Chapter Report [Chapter: %s] | Pages: %d-%d | Topic ID: %s | Confidence: %.2f | Relevant: %t",
			title.GeneratedTitle, seg.StartPage, seg.EndPage, topicLabel(topicID), confidence, title.IsRelevant,
		))
	}

	return steps
}

// legacyChunking is the original TOC-unaware path: a fixed 18-group split,
// title and relevance only (no topic classification), with a progress entry
// every 10th chunk.
func (p *Pipeline) legacyChunking(ctx context.Context, doc DocumentSource, bookID int64) []string {
	steps := []string{"Initiating chunk processing."}

	chunkCount := 0
	relevantCount := 0
	for _, seg := range segmentBounds(doc.NumPages(), p.opts.LegacyChunks) {
		content := assembleSpan(doc, seg.StartPage, seg.EndPage)

		title := p.enricher.TitleAndRelevance(ctx, content)
		if title.IsRelevant {
			relevantCount++
		}

		chunk := &model.Chunk{
			BookID:      bookID,
			StartPage:   seg.StartPage,
			EndPage:     seg.EndPage,
			IsRelevant:  title.IsRelevant,
			ChapterName: title.GeneratedTitle,
			Content:     content,
			UsageCount:  0,
		}
		if err := p.store.InsertChunk(ctx, chunk); err != nil {
			logger.Error(err, "chunking: insert failed for pages %d-%d", seg.StartPage, seg.EndPage)
			return append(steps, fmt.Sprintf("Error: %v", err))
		}

		chunkCount++
		if chunkCount%10 == 0 {
			steps = append(steps, fmt.Sprintf("Processed %d chunks. %d relevant chunks identified.", chunkCount, relevantCount))
		}
	}

	return append(steps, fmt.Sprintf("Completed: %d chunks processed and stored. %d chunks marked as relevant.", chunkCount, relevantCount))
}
