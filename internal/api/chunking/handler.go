package chunking

import (
	"context"
	"strconv"

	"book-chunker/internal/core/labeling"
	"book-chunker/internal/database"
	chunkingsvc "book-chunker/internal/services/chunking"
	"book-chunker/pkg/apperror"
	"book-chunker/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type chunkRequest struct {
	BookID *int64 `json:"book_id"`
}

// HandleChunk runs the chunking pipeline for one book id, taken from the
// query string or the JSON body. The overwrite run mode comes from config,
// not the request.
func HandleChunk(c fiber.Ctx) error {
	bookID, ok, err := parseBookID(c)
	if err != nil {
		return apperror.BadRequest(c, status.InvalidBookID, "Invalid book_id. Must be an integer.")
	}
	if !ok {
		return apperror.BadRequest(c, status.MissingBookID, "Please provide a book_id in the query string or request body")
	}

	db, err := database.Open()
	if err != nil {
		return apperror.InternalError(c, err)
	}
	defer database.Close(db)

	labeler, err := labeling.NewOpenAIService()
	if err != nil {
		return apperror.InternalError(c, err)
	}

	pipeline := chunkingsvc.NewPipeline(
		chunkingsvc.NewGateway(db),
		labeler,
		chunkingsvc.NewBlobOpener(),
		chunkingsvc.OptionsFromConfig(),
	)

	// runs have no mid-flight cancellation; a disconnecting client must not
	// abort a started run
	report := pipeline.Run(context.Background(), bookID)

	if report.Status == "error" {
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

func parseBookID(c fiber.Ctx) (int64, bool, error) {
	if raw := c.Query("book_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, true, err
		}
		return id, true, nil
	}

	var req chunkRequest
	if err := c.Bind().Body(&req); err == nil && req.BookID != nil {
		return *req.BookID, true, nil
	}
	return 0, false, nil
}
