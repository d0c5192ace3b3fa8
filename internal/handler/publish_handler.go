package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/atelier/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	publishSuccessMessage = "Published! Changes are now live on the website."
	publishFailureMessage = "Publish failed. Please try again or contact support."
	busyMessage           = "Another publish or discard is in progress. Try again shortly."
)

type publishPayload struct {
	Notes string `json:"notes"`
}

// Publish renders and uploads the site. Failure details stay in the server log.
func (a *API) Publish(c *gin.Context) {
	var payload publishPayload
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
			respondOperationError(c, http.StatusBadRequest, "Invalid request")
			return
		}
	}

	result, err := a.publish.Publish(c.Request.Context(), currentUsername(c), payload.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOperationInProgress):
			respondOperationError(c, http.StatusConflict, busyMessage)
		default:
			respondOperationError(c, http.StatusInternalServerError, publishFailureMessage)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      publishSuccessMessage,
		"published_at": result.PublishedAt,
		"stats":        result.Stats,
	})
}

// PendingChanges lists what the next publish would change.
func (a *API) PendingChanges(c *gin.Context) {
	changes, err := a.pending.Pending(c.Request.Context())
	if err != nil {
		a.logger.Error("load pending changes", "error", err)
		respondError(c, http.StatusInternalServerError, "Could not load pending changes")
		return
	}
	c.JSON(http.StatusOK, changes)
}

// Discard reverts pending changes for one target or for everything.
func (a *API) Discard(c *gin.Context) {
	var target service.DiscardTarget
	if err := c.ShouldBindJSON(&target); err != nil {
		respondOperationError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	count, err := a.discard.Discard(c.Request.Context(), target)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDiscardTarget):
			respondOperationError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrGalleryNotFound):
			respondOperationError(c, http.StatusNotFound, "Gallery not found")
		case errors.Is(err, service.ErrThemeSettingNotFound):
			respondOperationError(c, http.StatusNotFound, "Theme setting not found")
		case errors.Is(err, service.ErrThemeNeverPublished):
			respondOperationError(c, http.StatusConflict, "This theme setting has never been published")
		case errors.Is(err, service.ErrGallerySlugTaken):
			respondOperationError(c, http.StatusConflict, "Another gallery now uses the published slug")
		case errors.Is(err, service.ErrOperationInProgress):
			respondOperationError(c, http.StatusConflict, busyMessage)
		default:
			a.logger.Error("discard failed", "target", target, "error", err)
			respondOperationError(c, http.StatusInternalServerError, "Discard failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "discarded": count})
}

// PublishHistory returns recent publish log rows and attempts.
func (a *API) PublishHistory(c *gin.Context) {
	history, err := a.publish.History(c.Request.Context())
	if err != nil {
		a.logger.Error("load publish history", "error", err)
		respondError(c, http.StatusInternalServerError, "Could not load publish history")
		return
	}
	c.JSON(http.StatusOK, history)
}

// PublishedData serves the data blobs uploaded by the last successful publish.
func (a *API) PublishedData(c *gin.Context) {
	obj, err := a.publish.PublishedData(c.Request.Context(), c.Param("type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownDataType):
			respondError(c, http.StatusBadRequest, "Unknown data type")
		case errors.Is(err, service.ErrNotPublished):
			respondError(c, http.StatusNotFound, "Nothing has been published yet")
		default:
			a.logger.Error("read published data", "type", c.Param("type"), "error", err)
			respondError(c, http.StatusInternalServerError, "Could not read published data")
		}
		return
	}
	c.Data(http.StatusOK, obj.ContentType, obj.Body)
}
