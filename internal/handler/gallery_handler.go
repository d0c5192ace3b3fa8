package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/atelier/internal/db"
	"github.com/atelier/internal/service"
	"github.com/gin-gonic/gin"
)

type galleryPayload struct {
	Slug          string  `json:"slug"`
	Type          string  `json:"type"`
	NameCS        string  `json:"name_cs"`
	NameEN        string  `json:"name_en"`
	DescriptionCS *string `json:"description_cs"`
	DescriptionEN *string `json:"description_en"`
	Category      *string `json:"category"`
	Year          *int    `json:"year"`
	SeriesKey     *string `json:"series_key"`
	IsVisible     *bool   `json:"is_visible"`
	SortOrder     *int    `json:"sort_order"`
}

func (p galleryPayload) toInput() service.GalleryInput {
	return service.GalleryInput{
		Slug:          p.Slug,
		Type:          p.Type,
		NameCS:        p.NameCS,
		NameEN:        p.NameEN,
		DescriptionCS: p.DescriptionCS,
		DescriptionEN: p.DescriptionEN,
		Category:      p.Category,
		Year:          p.Year,
		SeriesKey:     p.SeriesKey,
		IsVisible:     p.IsVisible,
		SortOrder:     p.SortOrder,
	}
}

type galleryUpdatePayload struct {
	NameCS        *string `json:"name_cs"`
	NameEN        *string `json:"name_en"`
	DescriptionCS *string `json:"description_cs"`
	DescriptionEN *string `json:"description_en"`
	IsVisible     *bool   `json:"is_visible"`
	SortOrder     *int    `json:"sort_order"`
	Version       *int    `json:"version"`
}

type galleryItemPayload struct {
	ArtworkID string `json:"artwork_id"`
}

type reorderPayload struct {
	ArtworkIDs []string `json:"artwork_ids"`
}

// ListGalleries returns every gallery for the admin UI.
func (a *API) ListGalleries(c *gin.Context) {
	a.listGalleries(c, false)
}

// ListVisibleGalleries returns only visible galleries.
func (a *API) ListVisibleGalleries(c *gin.Context) {
	a.listGalleries(c, true)
}

func (a *API) listGalleries(c *gin.Context, visibleOnly bool) {
	items, err := a.galleries.List(service.GalleryFilter{
		Type:        strings.TrimSpace(c.Query("type")),
		Category:    strings.TrimSpace(c.Query("category")),
		VisibleOnly: visibleOnly,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load galleries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetGallery returns one gallery with its artworks.
func (a *API) GetGallery(c *gin.Context) {
	gallery, err := a.galleries.Get(c.Param("id"))
	if err != nil {
		respondGalleryError(c, err, "Could not load gallery")
		return
	}
	c.JSON(http.StatusOK, gallery)
}

// GetVisibleGallery hides invisible galleries behind a 404.
func (a *API) GetVisibleGallery(c *gin.Context) {
	gallery, err := a.galleries.Get(c.Param("id"))
	if err == nil && !gallery.IsVisible {
		err = service.ErrGalleryNotFound
	}
	if err != nil {
		respondGalleryError(c, err, "Could not load gallery")
		return
	}

	public := gallery.Items[:0]
	for _, item := range gallery.Items {
		if item.Artwork != nil && item.Artwork.Status != db.ArtworkStatusPrivate {
			public = append(public, item)
		}
	}
	gallery.Items = public
	c.JSON(http.StatusOK, gallery)
}

// CreateGallery creates a new gallery.
func (a *API) CreateGallery(c *gin.Context) {
	var payload galleryPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}

	gallery, err := a.galleries.Create(payload.toInput())
	if err != nil {
		respondGalleryError(c, err, "Could not create gallery")
		return
	}
	c.JSON(http.StatusCreated, gallery)
}

// UpdateGallery updates the editable fields of a gallery.
func (a *API) UpdateGallery(c *gin.Context) {
	var payload galleryUpdatePayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}

	gallery, err := a.galleries.Update(c.Param("id"), service.GalleryUpdateInput{
		NameCS:        payload.NameCS,
		NameEN:        payload.NameEN,
		DescriptionCS: payload.DescriptionCS,
		DescriptionEN: payload.DescriptionEN,
		IsVisible:     payload.IsVisible,
		SortOrder:     payload.SortOrder,
		Version:       payload.Version,
	})
	if err != nil {
		respondGalleryError(c, err, "Could not update gallery")
		return
	}
	c.JSON(http.StatusOK, gallery)
}

// DeleteGallery removes an empty gallery.
func (a *API) DeleteGallery(c *gin.Context) {
	if err := a.galleries.Delete(c.Param("id")); err != nil {
		respondGalleryError(c, err, "Could not delete gallery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gallery deleted"})
}

// AddGalleryItem appends an artwork to a gallery.
func (a *API) AddGalleryItem(c *gin.Context) {
	var payload galleryItemPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}
	if strings.TrimSpace(payload.ArtworkID) == "" {
		respondError(c, http.StatusBadRequest, "artwork_id is required")
		return
	}

	item, err := a.galleries.AddItem(c.Param("id"), strings.TrimSpace(payload.ArtworkID))
	if err != nil {
		respondGalleryError(c, err, "Could not add artwork")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// RemoveGalleryItem removes an artwork from a gallery.
func (a *API) RemoveGalleryItem(c *gin.Context) {
	artworkID := c.Param("artworkId")
	if artworkID == "" {
		var payload galleryItemPayload
		if !bindJSON(c, &payload, "Invalid request") {
			return
		}
		artworkID = strings.TrimSpace(payload.ArtworkID)
	}

	if err := a.galleries.RemoveItem(c.Param("id"), artworkID); err != nil {
		respondGalleryError(c, err, "Could not remove artwork")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Artwork removed"})
}

// ReorderGallery sets the order of every artwork in a gallery.
func (a *API) ReorderGallery(c *gin.Context) {
	var payload reorderPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}

	if err := a.galleries.Reorder(c.Param("id"), payload.ArtworkIDs); err != nil {
		respondGalleryError(c, err, "Could not reorder gallery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gallery reordered"})
}

func respondGalleryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrGalleryNotFound):
		respondError(c, http.StatusNotFound, "Gallery not found")
	case errors.Is(err, service.ErrArtworkNotFound):
		respondError(c, http.StatusNotFound, "Artwork not found")
	case errors.Is(err, service.ErrGalleryItemNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGalleryNameRequired),
		errors.Is(err, service.ErrGalleryTypeInvalid),
		errors.Is(err, service.ErrGalleryCategoryInvalid),
		errors.Is(err, service.ErrGalleryYearRequired),
		errors.Is(err, service.ErrGallerySlugInvalid),
		errors.Is(err, service.ErrGallerySeriesKeyInvalid),
		errors.Is(err, service.ErrGalleryReorderMismatch):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGallerySlugTaken),
		errors.Is(err, service.ErrGallerySeriesKeyTaken),
		errors.Is(err, service.ErrGalleryNotEmpty),
		errors.Is(err, service.ErrGalleryItemExists),
		errors.Is(err, service.ErrGalleryVersionConflict):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
