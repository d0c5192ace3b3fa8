package site

import (
	"time"

	"github.com/atelier/internal/locale"
)

// Localized holds the Czech and English variants of one string.
type Localized struct {
	CS string `json:"cs"`
	EN string `json:"en"`
}

// In returns the variant for language, falling back to Czech.
func (l Localized) In(language string) string {
	return locale.Pick(language, l.EN, l.CS)
}

type Artwork struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      Localized `json:"title"`
	Medium     Localized `json:"medium"`
	Dimensions string    `json:"dimensions"`
	Year       int       `json:"year"`
	Status     string    `json:"status,omitempty"`
}

type CarouselSlide struct {
	Filename string    `json:"filename"`
	Alt      Localized `json:"alt"`
}

type PaintingYear struct {
	Year     int       `json:"year"`
	Artworks []Artwork `json:"artworks"`
}

type WatercolorSeries struct {
	ID       string    `json:"id"`
	Title    Localized `json:"title"`
	Year     int       `json:"year"`
	Preview  []string  `json:"preview"`
	Artworks []Artwork `json:"artworks"`
}

// PaintingsData is the render-ready shape of the paintings section.
type PaintingsData struct {
	Carousel []CarouselSlide `json:"carousel"`
	Featured []Artwork       `json:"featured"`
	Years    []PaintingYear  `json:"years"`
}

type WatercolorsData struct {
	Series []WatercolorSeries `json:"series"`
}

type Bio struct {
	BirthYear   int       `json:"birthYear"`
	BirthPlace  string    `json:"birthPlace"`
	Description Localized `json:"description"`
}

// Exhibition entries with Visible=false start collapsed on the about page.
type Exhibition struct {
	Year    int       `json:"year"`
	Name    Localized `json:"name"`
	Visible *bool     `json:"visible,omitempty"`
}

func (e Exhibition) Hidden() bool {
	return e.Visible != nil && !*e.Visible
}

type Residency struct {
	Year int       `json:"year"`
	Name Localized `json:"name"`
}

type Education struct {
	Years string    `json:"years"`
	Name  Localized `json:"name"`
}

// AboutData also carries the home page introduction paragraphs.
type AboutData struct {
	Intro       []Localized  `json:"intro"`
	Bio         Bio          `json:"bio"`
	Exhibitions []Exhibition `json:"exhibitions"`
	Residencies []Residency  `json:"residencies"`
	Education   []Education  `json:"education"`
}

type SocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ContactData struct {
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	Location Localized    `json:"location"`
	Intro    Localized    `json:"intro"`
	Social   []SocialLink `json:"social"`
}

// Input is everything a render needs. LastModified only feeds sitemap lastmod
// values; the zero time omits them.
type Input struct {
	Paintings    PaintingsData
	Watercolors  WatercolorsData
	About        AboutData
	Contact      ContactData
	ThemeCSS     string
	LastModified time.Time
}

// Options are deployment settings that stay fixed between renders.
type Options struct {
	SiteName     string
	BaseURL      string
	ImageBaseURL string
}

// Pages maps a storage-relative path such as "cs/malby/index.html" to its body.
type Pages map[string]string
