package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/notes"
)

// NoteRequest is the body for note create and update.
type NoteRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Mode optionally selects the embedding backend for index sync.
	Mode string `json:"modelMode"`
}

// handleNoteCreate persists a note and dispatches index sync in the
// background. The response never waits on, or reflects, the sync outcome.
func (s *Server) handleNoteCreate(c echo.Context) error {
	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	note := &notes.Note{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
	}

	saved, err := s.store.Save(c.Request().Context(), note)
	if err != nil {
		if errors.Is(err, notes.ErrInvalidNote) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("note create failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save note"})
	}

	s.pipeline.DispatchIndex(saved, s.modeOrDefault(req.Mode))

	return c.JSON(http.StatusCreated, saved)
}

func (s *Server) handleNoteUpdate(c echo.Context) error {
	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	note := &notes.Note{
		ID:          c.Param("id"),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
	}

	saved, err := s.store.Save(c.Request().Context(), note)
	if err != nil {
		if errors.Is(err, notes.ErrInvalidNote) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("note update failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save note"})
	}

	s.pipeline.DispatchIndex(saved, s.modeOrDefault(req.Mode))

	return c.JSON(http.StatusOK, saved)
}

func (s *Server) handleNoteGet(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
	}

	note, err := s.store.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "note not found"})
		}
		s.logger.Error("note get failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load note"})
	}
	return c.JSON(http.StatusOK, note)
}

func (s *Server) handleNoteList(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
	}

	list, err := s.store.List(c.Request().Context(), userID)
	if err != nil {
		s.logger.Error("note list failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list notes"})
	}
	if list == nil {
		list = []*notes.Note{}
	}
	return c.JSON(http.StatusOK, list)
}

// handleNoteDelete removes the note record, then dispatches index cleanup
// in the background.
func (s *Server) handleNoteDelete(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
	}
	id := c.Param("id")

	if err := s.store.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "note not found"})
		}
		s.logger.Error("note delete failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete note"})
	}

	s.pipeline.DispatchDelete(userID, id)

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) modeOrDefault(mode string) string {
	if mode == "" {
		return s.config.DefaultMode
	}
	return mode
}
