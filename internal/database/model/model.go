package model

// Book is a catalog record owned by the upload/cataloging side; the chunking
// pipeline only reads it.
type Book struct {
	BookID int64   `gorm:"column:book_id;primaryKey;autoIncrement"`
	Title  *string `gorm:"column:title"`
	URL    string  `gorm:"column:url"`
}

func (Book) TableName() string { return "book" }

// Topic is one entry of the fixed classification vocabulary.
type Topic struct {
	TopicID int64  `gorm:"column:topic_id;primaryKey"`
	Topic   string `gorm:"column:topic"`
}

func (Topic) TableName() string { return "topic" }

// Chunk is a page-bounded excerpt of a book, enriched with a generated title,
// a relevance flag and a topic classification. TopicID is NULL when the
// classifier returned an id outside the topic vocabulary.
type Chunk struct {
	ChunkID             int64   `gorm:"column:chunk_id;primaryKey;autoIncrement"`
	BookID              int64   `gorm:"column:book_id;index"`
	StartPage           int     `gorm:"column:startpage"`
	EndPage             int     `gorm:"column:endpage"`
	IsRelevant          bool    `gorm:"column:is_relevant"`
	ChapterName         string  `gorm:"column:chaptername"`
	Content             string  `gorm:"column:content"`
	TopicID             *int64  `gorm:"column:topic_id"`
	RelevancePercentage float64 `gorm:"column:relevance_percentage"`
	UsageCount          int     `gorm:"column:usage_count"`
}

func (Chunk) TableName() string { return "chunk" }
