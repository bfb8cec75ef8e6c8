package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"songbook/catalog"
	"songbook/logging"
	"songbook/models"
	"songbook/query"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgNotFound     = "Song not found"
	msgDeleted      = "Song deleted successfully"
	msgListFailed   = "Failed to fetch songs"
	msgStatsFailed  = "Failed to fetch statistics"
	msgGetFailed    = "Failed to fetch song"
	msgCreateFailed = "Failed to create song"
	msgUpdateFailed = "Failed to update song"
	msgDeleteFailed = "Failed to delete song"
)

// ListSongs never rejects malformed query parameters: they fall back to
// their defaults.
func ListSongs(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := query.Normalize(c.Request.URL.Query())

		resp, err := svc.List(c.Request.Context(), d)
		if err != nil {
			respondError(c, err, msgListFailed)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func GetStats(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err, msgStatsFailed)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func CreateSong(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.SongInput
		if err := c.ShouldBindJSON(&in); err != nil {
			logging.FromContext(c.Request.Context()).Warn().Err(err).Msg("Bind error")
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: msgInvalidBody})
			return
		}

		song, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, err, msgCreateFailed)
			return
		}

		c.JSON(http.StatusCreated, song)
	}
}

func GetSong(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		song, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, msgGetFailed)
			return
		}

		c.JSON(http.StatusOK, song)
	}
}

func UpdateSong(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.SongInput
		if err := c.ShouldBindJSON(&in); err != nil {
			logging.FromContext(c.Request.Context()).Warn().Err(err).Msg("Bind error")
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: msgInvalidBody})
			return
		}

		song, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, err, msgUpdateFailed)
			return
		}

		c.JSON(http.StatusOK, song)
	}
}

func DeleteSong(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		song, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, msgDeleteFailed)
			return
		}

		c.JSON(http.StatusOK, models.DeleteResponse{Message: msgDeleted, Song: *song})
	}
}

// respondError maps catalogue errors onto status codes. Store failures are
// logged in full but answered with the generic failMsg only.
func respondError(c *gin.Context, err error, failMsg string) {
	logger := logging.FromContext(c.Request.Context())

	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: ve.Error()})
	case errors.Is(err, catalog.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed"})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Message: msgNotFound})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(failMsg)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: failMsg})
	}
}
