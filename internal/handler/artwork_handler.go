package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/atelier/internal/service"
	"github.com/gin-gonic/gin"
)

type artworkPayload struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	ImageURL   *string `json:"image_url"`
	TitleCS    string  `json:"title_cs"`
	TitleEN    string  `json:"title_en"`
	MediumCS   string  `json:"medium_cs"`
	MediumEN   string  `json:"medium_en"`
	Dimensions string  `json:"dimensions"`
	Year       int     `json:"year"`
	Category   string  `json:"category"`
	Status     string  `json:"status"`
}

func (p artworkPayload) toInput() service.ArtworkInput {
	return service.ArtworkInput{
		ID:         p.ID,
		Filename:   p.Filename,
		ImageURL:   p.ImageURL,
		TitleCS:    p.TitleCS,
		TitleEN:    p.TitleEN,
		MediumCS:   p.MediumCS,
		MediumEN:   p.MediumEN,
		Dimensions: p.Dimensions,
		Year:       p.Year,
		Category:   p.Category,
		Status:     p.Status,
	}
}

// ListArtworks returns a page of artworks, private ones included.
func (a *API) ListArtworks(c *gin.Context) {
	a.listArtworks(c, false)
}

// ListPublicArtworks returns a page of artworks without private ones.
func (a *API) ListPublicArtworks(c *gin.Context) {
	a.listArtworks(c, true)
}

func (a *API) listArtworks(c *gin.Context, publicOnly bool) {
	result, err := a.artworks.List(service.ArtworkFilter{
		Category:   strings.TrimSpace(c.Query("category")),
		Year:       parsePositiveInt(c.Query("year"), 0),
		Search:     c.Query("q"),
		Page:       parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:    parsePositiveInt(c.Query("per_page"), 0),
		PublicOnly: publicOnly,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load artworks")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetArtwork returns one artwork.
func (a *API) GetArtwork(c *gin.Context) {
	art, err := a.artworks.Get(c.Param("id"))
	if err != nil {
		respondArtworkError(c, err, "Could not load artwork")
		return
	}
	c.JSON(http.StatusOK, art)
}

// CreateArtwork creates an artwork.
func (a *API) CreateArtwork(c *gin.Context) {
	var payload artworkPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}
	art, err := a.artworks.Create(payload.toInput())
	if err != nil {
		respondArtworkError(c, err, "Could not create artwork")
		return
	}
	c.JSON(http.StatusCreated, art)
}

// UpdateArtwork replaces an artwork's fields.
func (a *API) UpdateArtwork(c *gin.Context) {
	var payload artworkPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}
	art, err := a.artworks.Update(c.Param("id"), payload.toInput())
	if err != nil {
		respondArtworkError(c, err, "Could not update artwork")
		return
	}
	c.JSON(http.StatusOK, art)
}

// DeleteArtwork removes an artwork and its gallery memberships.
func (a *API) DeleteArtwork(c *gin.Context) {
	if err := a.artworks.Delete(c.Param("id")); err != nil {
		respondArtworkError(c, err, "Could not delete artwork")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Artwork deleted"})
}

func respondArtworkError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrArtworkNotFound):
		respondError(c, http.StatusNotFound, "Artwork not found")
	case errors.Is(err, service.ErrArtworkTitleRequired),
		errors.Is(err, service.ErrArtworkYearInvalid),
		errors.Is(err, service.ErrArtworkCategoryInvalid),
		errors.Is(err, service.ErrArtworkStatusInvalid),
		errors.Is(err, service.ErrArtworkIDInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrArtworkIDTaken):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
