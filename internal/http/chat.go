package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/chat"
)

// ErrorResponse is the body for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleChat runs one chat turn. Validation failures are 400; a terminal
// generation failure is 500 with the fixed apology, never the upstream
// error body.
func (s *Server) handleChat(c echo.Context) error {
	var req chat.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	res, err := s.orchestrator.Chat(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("chat turn failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: chat.Apology})
	}

	if res.Failed {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: chat.Apology})
	}

	return c.JSON(http.StatusOK, res)
}
