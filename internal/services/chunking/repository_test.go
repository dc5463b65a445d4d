package chunking

import (
	"context"
	"testing"
	"time"

	"book-chunker/internal/database/model"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Book{}, &model.Topic{}, &model.Chunk{}))
	return db
}

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	return &Gateway{db: openTestDB(t), baseDelay: time.Millisecond}
}

func TestGatewayBookRoundTrip(t *testing.T) {
	g := testGateway(t)
	ctx := context.Background()

	title := "Linear Algebra"
	require.NoError(t, g.db.Create(&model.Book{Title: &title, URL: "books/la.pdf"}).Error)

	book, err := g.FetchBookByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, book.Title)
	assert.Equal(t, "Linear Algebra", *book.Title)
	assert.Equal(t, "books/la.pdf", book.URL)

	_, err = g.FetchBookByID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGatewayChunkLifecycle(t *testing.T) {
	g := testGateway(t)
	ctx := context.Background()

	exists, err := g.ChunksExist(ctx, 7)
	require.NoError(t, err)
	assert.False(t, exists)

	topicID := int64(3)
	for i := 0; i < 2; i++ {
		err := g.InsertChunk(ctx, &model.Chunk{
			BookID:              7,
			StartPage:           i*3 + 1,
			EndPage:             i*3 + 3,
			IsRelevant:          true,
			ChapterName:         "Chapter",
			Content:             "content",
			TopicID:             &topicID,
			RelevancePercentage: 0.9,
		})
		require.NoError(t, err)
	}
	// a chunk of a different book must survive the delete below
	require.NoError(t, g.InsertChunk(ctx, &model.Chunk{BookID: 8, StartPage: 1, EndPage: 2}))

	exists, err = g.ChunksExist(ctx, 7)
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := g.DeleteChunks(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	exists, err = g.ChunksExist(ctx, 7)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = g.ChunksExist(ctx, 8)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGatewayFetchTopicsOrdered(t *testing.T) {
	g := testGateway(t)
	ctx := context.Background()

	require.NoError(t, g.db.Create(&model.Topic{TopicID: 5, Topic: "Physics"}).Error)
	require.NoError(t, g.db.Create(&model.Topic{TopicID: 2, Topic: "History"}).Error)

	topics, err := g.FetchTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, int64(2), topics[0].TopicID)
	assert.Equal(t, int64(5), topics[1].TopicID)
}

func TestWithRetryRecoversFromConnectionExhaustion(t *testing.T) {
	g := testGateway(t)
	g.baseDelay = 15 * time.Millisecond

	attempts := 0
	start := time.Now()
	err := g.withRetry(context.Background(), func(*gorm.DB) error {
		attempts++
		if attempts < 3 {
			return &mysql.MySQLError{Number: mysqlTooManyConnections, Message: "Too many connections"}
		}
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// backoff doubles: baseDelay + 2*baseDelay before the third attempt
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	g := testGateway(t)

	attempts := 0
	err := g.withRetry(context.Background(), func(*gorm.DB) error {
		attempts++
		return &mysql.MySQLError{Number: mysqlTooManyConnections, Message: "Too many connections"}
	})

	require.Error(t, err)
	assert.Equal(t, retryAttempts, attempts)

	var mysqlErr *mysql.MySQLError
	require.ErrorAs(t, err, &mysqlErr)
	assert.Equal(t, uint16(mysqlTooManyConnections), mysqlErr.Number)
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	g := testGateway(t)

	attempts := 0
	err := g.withRetry(context.Background(), func(*gorm.DB) error {
		attempts++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, attempts)
}
