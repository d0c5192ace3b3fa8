package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/atelier/internal/service"
	"github.com/atelier/internal/view"
	"github.com/gin-gonic/gin"
)

const maxSiteContentBytes = 1 << 20

// GetSiteContent returns the about or contact document.
func (a *API) GetSiteContent(c *gin.Context) {
	body, err := a.content.Raw(c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrSiteContentUnknown) {
			respondError(c, http.StatusNotFound, "Unknown document")
			return
		}
		respondError(c, http.StatusInternalServerError, "Could not load document")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// PutSiteContent stores the about or contact document.
func (a *API) PutSiteContent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSiteContentBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := a.content.Put(c.Param("name"), body); err != nil {
		switch {
		case errors.Is(err, service.ErrSiteContentUnknown):
			respondError(c, http.StatusNotFound, "Unknown document")
		case errors.Is(err, service.ErrSiteContentInvalid):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "Could not save document")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saved"})
}

// SocialIconOptions lists the icons a contact social link can use.
func (a *API) SocialIconOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": view.SocialIconOptions()})
}
