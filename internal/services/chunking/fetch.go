package chunking

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"book-chunker/config"
	"book-chunker/internal/core/pdfdoc"
	s3client "book-chunker/pkg/s3"
)

// DocumentSource is an open, page-addressable document.
type DocumentSource interface {
	PageSource
	Close() error
}

// DocumentOpener resolves a book's source-file reference into an open
// document. The returned func releases any staging resources.
type DocumentOpener interface {
	Open(ctx context.Context, ref string) (DocumentSource, func(), error)
}

// BlobOpener fetches the referenced PDF (s3://bucket/key, a bare key in the
// configured bucket, or a local path) to a temp file and opens it.
type BlobOpener struct{}

func NewBlobOpener() *BlobOpener { return &BlobOpener{} }

func (o *BlobOpener) Open(ctx context.Context, ref string) (DocumentSource, func(), error) {
	path, cleanup, err := fetchToLocalTemp(ctx, ref)
	if err != nil {
		return nil, func() {}, err
	}
	doc, err := pdfdoc.Open(path)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return doc, cleanup, nil
}

// fetchToLocalTemp stages the referenced file on local disk and returns its
// path plus a cleanup func.
func fetchToLocalTemp(ctx context.Context, ref string) (string, func(), error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", func() {}, err
		}
		return downloadToTemp(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case fileExists(ref):
		return copyToTemp(ref)
	default:
		// bare blob key in the configured bucket
		return downloadToTemp(ctx, config.Cfg.S3.Bucket, ref)
	}
}

func downloadToTemp(ctx context.Context, bucket, key string) (string, func(), error) {
	body, err := s3client.FetchObject(ctx, bucket, key)
	if err != nil {
		return "", func() {}, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "chunking-*.pdf")
	if err != nil {
		return "", func() {}, err
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", func() {}, err
	}
	tmp.Close()
	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}

func copyToTemp(path string) (string, func(), error) {
	abs := path
	if !filepath.IsAbs(abs) {
		cwd, _ := os.Getwd()
		abs = filepath.Join(cwd, path)
	}
	src, err := os.Open(abs)
	if err != nil {
		return "", func() {}, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "chunking-*.pdf")
	if err != nil {
		return "", func() {}, err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", func() {}, err
	}
	tmp.Close()
	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
