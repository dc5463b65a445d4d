package chunking

import (
	"context"
	"errors"
	"fmt"

	"book-chunker/internal/core/labeling"
	"book-chunker/internal/database/model"

	"gorm.io/gorm"
)

// stubLabeler lets each test script the labeling service per call.
type stubLabeler struct {
	analyze  func(ctx context.Context, pageContent string, pageNumber int) (labeling.TOCAnalysis, error)
	title    func(ctx context.Context, text string) (labeling.TitleAndRelevance, error)
	chapters func(ctx context.Context, tocText string) ([]labeling.ChapterEntry, error)
	classify func(ctx context.Context, text string, topics []labeling.TopicOption) (labeling.Classification, error)
}

func (s *stubLabeler) AnalyzePageForTOC(ctx context.Context, pageContent string, pageNumber int) (labeling.TOCAnalysis, error) {
	if s.analyze == nil {
		return labeling.TOCAnalysis{}, nil
	}
	return s.analyze(ctx, pageContent, pageNumber)
}

func (s *stubLabeler) GenerateTitleAndRelevance(ctx context.Context, text string) (labeling.TitleAndRelevance, error) {
	if s.title == nil {
		return labeling.TitleAndRelevance{GeneratedTitle: "Generated Title", IsRelevant: true}, nil
	}
	return s.title(ctx, text)
}

func (s *stubLabeler) ExtractChapters(ctx context.Context, tocText string) ([]labeling.ChapterEntry, error) {
	if s.chapters == nil {
		return nil, nil
	}
	return s.chapters(ctx, tocText)
}

func (s *stubLabeler) ClassifyText(ctx context.Context, text string, topics []labeling.TopicOption) (labeling.Classification, error) {
	if s.classify == nil {
		return labeling.Classification{TopicID: 1, Confidence: 0.9}, nil
	}
	return s.classify(ctx, text, topics)
}

// qualifyPages builds an analyze stub marking the given pages as TOC pages
// with page-numbered chapters.
func qualifyPages(pages ...int) func(context.Context, string, int) (labeling.TOCAnalysis, error) {
	set := map[int]bool{}
	for _, p := range pages {
		set[p] = true
	}
	return func(_ context.Context, _ string, page int) (labeling.TOCAnalysis, error) {
		return labeling.TOCAnalysis{
			IsTOCPage:                      set[page],
			HasChapterNamesWithPageNumbers: set[page],
		}, nil
	}
}

// fakeDoc is an in-memory PageSource/DocumentSource.
type fakeDoc struct {
	pages []string
}

func docWithPages(n int) *fakeDoc {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("text of page %d", i+1)
	}
	return &fakeDoc{pages: pages}
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) PageText(page int) string {
	if page < 1 || page > len(d.pages) {
		return ""
	}
	return d.pages[page-1]
}

func (d *fakeDoc) Close() error { return nil }

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o *fakeOpener) Open(_ context.Context, _ string) (DocumentSource, func(), error) {
	if o.err != nil {
		return nil, func() {}, o.err
	}
	return o.doc, func() {}, nil
}

// memStore is an in-memory Store counting operations.
type memStore struct {
	books   map[int64]*model.Book
	topics  []model.Topic
	chunks  []model.Chunk
	inserts int
	deletes int

	insertErr error
}

func newMemStore() *memStore {
	return &memStore{books: map[int64]*model.Book{}}
}

func (s *memStore) FetchBookByID(_ context.Context, bookID int64) (*model.Book, error) {
	book, ok := s.books[bookID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

func (s *memStore) ChunksExist(_ context.Context, bookID int64) (bool, error) {
	for _, c := range s.chunks {
		if c.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) DeleteChunks(_ context.Context, bookID int64) (int64, error) {
	kept := s.chunks[:0]
	var removed int64
	for _, c := range s.chunks {
		if c.BookID == bookID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	s.deletes += int(removed)
	return removed, nil
}

func (s *memStore) InsertChunk(_ context.Context, chunk *model.Chunk) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserts++
	s.chunks = append(s.chunks, *chunk)
	return nil
}

func (s *memStore) FetchTopics(_ context.Context) ([]model.Topic, error) {
	return s.topics, nil
}

var errBoom = errors.New("boom")

func testOptions() Options {
	return Options{
		OverwriteExisting: false,
		Strategy:          "intelligent",
		MaxWords:          700,
		FallbackChunks:    15,
		LegacyChunks:      18,
		Strict:            true,
	}
}
