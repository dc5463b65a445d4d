package chunking

import (
	"context"

	"book-chunker/internal/core/labeling"
	"book-chunker/pkg/logger"
)

const (
	// tocScanWindow bounds how many leading pages are analyzed for a TOC.
	tocScanWindow = 19
	// tocPageSample is the per-page text budget handed to the labeler.
	tocPageSample = 1300
	// minConsecutiveTOCPages is the streak needed to confirm a region.
	minConsecutiveTOCPages = 2
)

// PageSource yields per-page plain text for an open document. Pages are
// 1-based; a page with no extractable text yields "".
type PageSource interface {
	NumPages() int
	PageText(page int) string
}

// TOCRegion is the contiguous page span classified as table of contents.
// StartPage/EndPage are 1-based and only meaningful when HasTOC is true.
type TOCRegion struct {
	HasTOC    bool
	StartPage int
	EndPage   int
}

// FindTOC scans at most the first min(tocScanWindow, pages) pages. A page
// qualifies only when the labeler flags it as a TOC page AND as showing
// chapter names with page numbers. A region is confirmed at
// minConsecutiveTOCPages consecutive qualifying pages; one non-qualifying
// page resets an unconfirmed streak and closes a confirmed one. The scan
// never restarts after a confirmed region closes.
//
// Labeler failures are logged and treated as non-qualifying pages; this is
// the only recovery applied here.
func FindTOC(ctx context.Context, labeler labeling.Service, doc PageSource) TOCRegion {
	var region TOCRegion
	streak := 0

	maxPages := doc.NumPages()
	if maxPages > tocScanWindow {
		maxPages = tocScanWindow
	}

	for page := 1; page <= maxPages; page++ {
		sample := truncateRunes(doc.PageText(page), tocPageSample)

		analysis, err := labeler.AnalyzePageForTOC(ctx, sample, page)
		if err != nil {
			logger.Error(err, "toc: page analysis failed for page %d", page)
			analysis = labeling.TOCAnalysis{}
		}

		if analysis.IsTOCPage && analysis.HasChapterNamesWithPageNumbers {
			streak++
			if region.StartPage == 0 {
				region.StartPage = page
			}
			region.EndPage = page
		} else {
			if streak >= minConsecutiveTOCPages {
				break
			}
			region.StartPage, region.EndPage, streak = 0, 0, 0
		}
	}

	region.HasTOC = streak >= minConsecutiveTOCPages
	if !region.HasTOC {
		region.StartPage, region.EndPage = 0, 0
	}
	return region
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
