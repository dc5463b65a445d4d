package chunking

import (
	"context"
	"testing"

	"book-chunker/internal/core/labeling"

	"github.com/stretchr/testify/assert"
)

func TestFindTOCConfirmsConsecutiveRun(t *testing.T) {
	labeler := &stubLabeler{analyze: qualifyPages(3, 4, 5)}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	assert.True(t, region.HasTOC)
	assert.Equal(t, 3, region.StartPage)
	assert.Equal(t, 5, region.EndPage)
}

func TestFindTOCSinglePageNotConfirmed(t *testing.T) {
	labeler := &stubLabeler{analyze: qualifyPages(4)}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	assert.False(t, region.HasTOC)
	assert.Zero(t, region.StartPage)
	assert.Zero(t, region.EndPage)
}

func TestFindTOCInterruptedStreakResets(t *testing.T) {
	// page 3 qualifies, page 4 does not, pages 6+7 do: the later run wins
	labeler := &stubLabeler{analyze: qualifyPages(3, 6, 7)}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	assert.True(t, region.HasTOC)
	assert.Equal(t, 6, region.StartPage)
	assert.Equal(t, 7, region.EndPage)
}

func TestFindTOCStopsAfterConfirmedRegion(t *testing.T) {
	var analyzed []int
	qualify := qualifyPages(2, 3, 10, 11)
	labeler := &stubLabeler{
		analyze: func(ctx context.Context, content string, page int) (labeling.TOCAnalysis, error) {
			analyzed = append(analyzed, page)
			return qualify(ctx, content, page)
		},
	}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	assert.True(t, region.HasTOC)
	assert.Equal(t, 2, region.StartPage)
	assert.Equal(t, 3, region.EndPage)
	// scan ends on the first non-qualifying page after confirmation
	assert.Equal(t, []int{1, 2, 3, 4}, analyzed)
}

func TestFindTOCIgnoresPagesBeyondWindow(t *testing.T) {
	labeler := &stubLabeler{analyze: qualifyPages(20, 21)}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	assert.False(t, region.HasTOC)
}

func TestFindTOCRequiresBothFlags(t *testing.T) {
	// flagged as TOC pages but without chapter/page-number listings
	labeler := &stubLabeler{
		analyze: func(_ context.Context, _ string, page int) (labeling.TOCAnalysis, error) {
			return labeling.TOCAnalysis{
				IsTOCPage:                      page == 3 || page == 4,
				HasChapterNamesWithPageNumbers: false,
			}, nil
		},
	}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	assert.False(t, region.HasTOC)
}

func TestFindTOCLabelerErrorIsNonQualifying(t *testing.T) {
	qualify := qualifyPages(3, 4, 5)
	labeler := &stubLabeler{
		analyze: func(ctx context.Context, content string, page int) (labeling.TOCAnalysis, error) {
			if page == 4 {
				return labeling.TOCAnalysis{}, errBoom
			}
			return qualify(ctx, content, page)
		},
	}

	region := FindTOC(context.Background(), labeler, docWithPages(40))

	// the error splits the run into two single-page streaks
	assert.False(t, region.HasTOC)
}

func TestFindTOCWindowShorterThanDocument(t *testing.T) {
	var analyzed int
	labeler := &stubLabeler{
		analyze: func(_ context.Context, _ string, _ int) (labeling.TOCAnalysis, error) {
			analyzed++
			return labeling.TOCAnalysis{}, nil
		},
	}

	FindTOC(context.Background(), labeler, docWithPages(5))
	assert.Equal(t, 5, analyzed)

	analyzed = 0
	FindTOC(context.Background(), labeler, docWithPages(200))
	assert.Equal(t, tocScanWindow, analyzed)
}

func TestFindTOCTruncatesPageSample(t *testing.T) {
	long := make([]rune, 5000)
	for i := range long {
		long[i] = 'ä'
	}
	doc := &fakeDoc{pages: []string{string(long), string(long)}}

	labeler := &stubLabeler{
		analyze: func(_ context.Context, content string, _ int) (labeling.TOCAnalysis, error) {
			assert.Len(t, []rune(content), tocPageSample)
			return labeling.TOCAnalysis{}, nil
		},
	}

	FindTOC(context.Background(), labeler, doc)
}
