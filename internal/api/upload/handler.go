package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"book-chunker/config"
	"book-chunker/internal/database"
	"book-chunker/internal/database/model"
	"book-chunker/pkg/apperror"
	"book-chunker/pkg/apperror/status"
	s3client "book-chunker/pkg/s3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v3"
)

type uploadResponse struct {
	BookID int64  `json:"book_id"`
	URL    string `json:"url"`
}

// HandleUpload stores an uploaded book PDF (S3 when a bucket is configured,
// local disk otherwise) and creates its catalog row. The chunking pipeline
// picks the file up later by the stored reference.
func HandleUpload(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.BadRequest(c, status.UploadMissingFile, "file is required")
	}
	if fh == nil || fh.Size == 0 {
		return apperror.BadRequest(c, status.UploadMissingFile, "empty file")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return apperror.BadRequest(c, status.InvalidRequestBody, "only pdf files are accepted")
	}

	file, err := fh.Open()
	if err != nil {
		return apperror.BadRequest(c, status.InvalidRequestBody, "cannot open file")
	}
	defer file.Close()

	db, err := database.Open()
	if err != nil {
		return apperror.InternalError(c, err)
	}
	defer database.Close(db)

	useS3 := strings.TrimSpace(config.Cfg.S3.Bucket) != ""

	var storedRef string
	if useS3 {
		storedRef, err = storeToS3(file, fh)
	} else {
		storedRef, err = storeToLocal(file, fh)
	}
	if err != nil {
		return apperror.InternalError(c, err)
	}

	title := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	book := model.Book{
		Title: &title,
		URL:   storedRef,
	}
	if err := db.Create(&book).Error; err != nil {
		return apperror.InternalError(c, err)
	}

	return apperror.Success(c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "File uploaded successfully",
		TrackingID: trackingID,
		Data:       uploadResponse{BookID: book.BookID, URL: storedRef},
	})
}

// storeToS3 hashes the stream while uploading and keys the object by digest.
func storeToS3(r io.Reader, fh *multipart.FileHeader) (string, error) {
	// buffer to temp so the body can be hashed before the upload
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return "", err
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), r); err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	key := fmt.Sprintf("books/%s.pdf", hex.EncodeToString(hasher.Sum(nil)))

	cli, err := s3client.GetClient()
	if err != nil {
		return "", err
	}
	_, err = cli.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(config.Cfg.S3.Bucket),
		Key:         aws.String(key),
		Body:        tmp,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func storeToLocal(r io.Reader, fh *multipart.FileHeader) (string, error) {
	baseDir := filepath.Join("storage", "books")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(baseDir, "upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), r); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	final := filepath.Join(baseDir, hex.EncodeToString(hasher.Sum(nil))+".pdf")
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return final, nil
}
