package chunking

import (
	"context"
	"errors"
	"time"

	"book-chunker/config"
	"book-chunker/internal/database/model"
	"book-chunker/pkg/logger"

	"github.com/avast/retry-go/v4"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlTooManyConnections is the server error number for ER_CON_COUNT_ERROR.
const mysqlTooManyConnections = 1040

const retryAttempts = 3

// Gateway is the persistence layer for one pipeline run. Every statement
// acquires a connection from the shared pool for its own duration; nothing
// holds a dedicated connection across calls. Statements hitting connection
// exhaustion are retried up to retryAttempts times with a doubling backoff;
// any other failure propagates immediately.
type Gateway struct {
	db        *gorm.DB
	baseDelay time.Duration
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{
		db:        db,
		baseDelay: time.Duration(config.Cfg.Pipeline.RetryBaseDelayMs) * time.Millisecond,
	}
}

func isConnectionExhausted(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlTooManyConnections
}

func (g *Gateway) withRetry(ctx context.Context, op func(tx *gorm.DB) error) error {
	return retry.Do(
		func() error { return op(g.db.WithContext(ctx)) },
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(g.baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isConnectionExhausted),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("gateway: connection pool exhausted, retrying (attempt %d): %v", attempt+1, err)
		}),
	)
}

// FetchBookByID loads one book row; gorm.ErrRecordNotFound when absent.
func (g *Gateway) FetchBookByID(ctx context.Context, bookID int64) (*model.Book, error) {
	var book model.Book
	err := g.withRetry(ctx, func(tx *gorm.DB) error {
		return tx.First(&book, "book_id = ?", bookID).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ChunksExist reports whether any chunks are persisted for the book.
func (g *Gateway) ChunksExist(ctx context.Context, bookID int64) (bool, error) {
	var count int64
	err := g.withRetry(ctx, func(tx *gorm.DB) error {
		return tx.Model(&model.Chunk{}).Where("book_id = ?", bookID).Count(&count).Error
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteChunks removes every chunk of the book and returns the removed count.
func (g *Gateway) DeleteChunks(ctx context.Context, bookID int64) (int64, error) {
	var deleted int64
	err := g.withRetry(ctx, func(tx *gorm.DB) error {
		result := tx.Where("book_id = ?", bookID).Delete(&model.Chunk{})
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// InsertChunk persists one chunk row.
func (g *Gateway) InsertChunk(ctx context.Context, chunk *model.Chunk) error {
	return g.withRetry(ctx, func(tx *gorm.DB) error {
		return tx.Create(chunk).Error
	})
}

// FetchTopics returns the topic vocabulary ordered by id.
func (g *Gateway) FetchTopics(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	err := g.withRetry(ctx, func(tx *gorm.DB) error {
		return tx.Order("topic_id").Find(&topics).Error
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}
