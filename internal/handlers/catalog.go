package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type trackResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	DurationSeconds int    `json:"duration_seconds"`
	AudioURL        string `json:"audio_url,omitempty"`
}

func (h HandlerSet) ListTracks(c *gin.Context) {
	tracks, err := h.catalogService.ListTracks(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.log.Error().Err(err).Msg("list tracks failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load catalog"})
		return
	}

	resp := make([]trackResponse, 0, len(tracks))
	for _, item := range tracks {
		resp = append(resp, trackResponse{
			ID:              item.Track.ID,
			Title:           item.Track.Title,
			Category:        string(item.Track.Category),
			DurationSeconds: item.Track.DurationSeconds,
			AudioURL:        item.AudioURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{"tracks": resp})
}
