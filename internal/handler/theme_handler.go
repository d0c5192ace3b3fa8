package handler

import (
	"errors"
	"net/http"

	"github.com/atelier/internal/service"
	"github.com/gin-gonic/gin"
)

type themePayload struct {
	Settings []service.ThemeChange `json:"settings"`
}

// ListTheme returns all theme settings.
func (a *API) ListTheme(c *gin.Context) {
	settings, err := a.theme.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load theme")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateTheme applies a batch of theme changes.
func (a *API) UpdateTheme(c *gin.Context) {
	var payload themePayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}
	if len(payload.Settings) == 0 {
		respondError(c, http.StatusBadRequest, "settings must not be empty")
		return
	}

	changed, err := a.theme.Update(payload.Settings)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrThemeSettingNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrThemeValueEmpty):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "Could not update theme")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
