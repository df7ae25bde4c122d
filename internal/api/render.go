package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/abedge/internal/domain"
)

// RenderRequest is the body of POST /api/v1/render.
type RenderRequest struct {
	HTML        string                  `json:"html"`
	Experiments []domain.ExperimentData `json:"experiments"`
}

// RenderResponse is the rendered document.
type RenderResponse struct {
	HTML string `json:"html"`
}

// handleRender renders the posted HTML for the posted experiments.
func handleRender(renderer Renderer, maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}

		var req RenderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			respondBadRequest(c, "Invalid request payload")
			return
		}

		if strings.TrimSpace(req.HTML) == "" {
			respondBadRequest(c, "html cannot be empty")
			return
		}

		c.JSON(http.StatusOK, RenderResponse{
			HTML: renderer.ProcessHTML(req.HTML, req.Experiments),
		})
	}
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondBadRequest sends a 400 with message.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}
