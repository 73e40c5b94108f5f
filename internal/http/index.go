package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/notes"
)

// IndexRequest is the note payload for POST /index and PUT /index. Field
// names follow the note record shape emitted by clients.
type IndexRequest struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`

	// Mode optionally selects the embedding backend; empty uses the
	// configured default.
	Mode string `json:"modelMode"`
}

// SuccessResponse is the body for successful index mutations.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// handleIndexUpsert embeds a note and upserts it into the vector index.
// POST and PUT are deliberately identical: upsert handles both create and
// update.
func (s *Server) handleIndexUpsert(c echo.Context) error {
	var req IndexRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid index request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	note := &notes.Note{
		ID:          req.ID,
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   parseTimestamp(req.CreatedAt),
		UpdatedAt:   parseTimestamp(req.UpdatedAt),
	}
	if err := note.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	mode := req.Mode
	if mode == "" {
		mode = s.config.DefaultMode
	}

	if err := s.pipeline.IndexNote(c.Request().Context(), note, mode); err != nil {
		s.logger.Error("index upsert failed",
			zap.String("note_id", note.ID),
			zap.String("user_id", note.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store embedding"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Embedding stored successfully"})
}

// DeleteIndexRequest is the body for DELETE /index.
type DeleteIndexRequest struct {
	NoteID string `json:"noteId"`
	UserID string `json:"userId"`
}

// handleIndexDelete removes a note's vector. Deleting an id that was never
// indexed still succeeds.
func (s *Server) handleIndexDelete(c echo.Context) error {
	var req DeleteIndexRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid index delete body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.NoteID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "noteId is required"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
	}

	if err := s.pipeline.DeleteNote(c.Request().Context(), req.UserID, req.NoteID); err != nil {
		s.logger.Error("index delete failed",
			zap.String("note_id", req.NoteID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete embedding"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Now().UTC()
}
