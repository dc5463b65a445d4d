package chunking

import (
	"fmt"

	"book-chunker/internal/core/labeling"
)

// Chapter is one chapter-bounded span derived from the TOC. Pages are 1-based
// in the TOC's own numbering (one page earlier than the physical index).
type Chapter struct {
	Name      string
	StartPage int
	EndPage   int
}

// SpanText concatenates the text of pages startPage..endPage (1-based,
// inclusive), one page per line.
func SpanText(doc PageSource, startPage, endPage int) (string, error) {
	if startPage < 1 || endPage > doc.NumPages() || startPage > endPage {
		return "", fmt.Errorf("invalid page span %d-%d for %d-page document", startPage, endPage, doc.NumPages())
	}
	text := ""
	for page := startPage; page <= endPage; page++ {
		text += doc.PageText(page) + "\n"
	}
	return text, nil
}

// TOCText extracts the text of a confirmed TOC region plus the page that
// follows it, where chapter listings often run over. The trailing page is
// clamped at the end of the document.
func TOCText(doc PageSource, region TOCRegion) (string, error) {
	end := region.EndPage + 1
	if end > doc.NumPages() {
		end = doc.NumPages()
	}
	return SpanText(doc, region.StartPage, end)
}

// ResolveChapters derives end boundaries for the extracted chapter entries:
// a chapter ends two pages before the next entry with a strictly greater
// start page; a chapter with no greater successor ends on the document's
// last page index. Entries are taken exactly as the labeler returned them;
// out-of-order or duplicate start pages pass through unreordered, so spans
// may overlap or be non-monotonic.
func ResolveChapters(entries []labeling.ChapterEntry, totalPages int) []Chapter {
	chapters := make([]Chapter, 0, len(entries))
	for _, e := range entries {
		end := totalPages - 1
		for _, next := range entries {
			if next.StartPage > e.StartPage {
				end = next.StartPage - 2
				break
			}
		}
		chapters = append(chapters, Chapter{
			Name:      e.Chapter,
			StartPage: e.StartPage,
			EndPage:   end,
		})
	}
	return chapters
}
