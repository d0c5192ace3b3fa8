// Package site 把内容数据渲染为完整的静态站点：每种语言的 HTML 页面、robots.txt 与 sitemap.xml。
// 渲染是纯函数，相同输入总是得到逐字节相同的输出。
package site

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/atelier/internal/locale"
	"github.com/atelier/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/site.css
var baseCSS string

//go:embed static/site.js
var siteScript string

var pageTemplates = []string{"home", "paintings", "watercolors", "series", "about", "contact"}

// Renderer holds parsed templates; it is safe for concurrent use.
type Renderer struct {
	opts  Options
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates once.
func NewRenderer(opts Options) (*Renderer, error) {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.ImageBaseURL = strings.TrimRight(opts.ImageBaseURL, "/")
	if opts.SiteName == "" {
		opts.SiteName = "Atelier"
	}

	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	root, err := template.New("root").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		clone, err := root.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = clone
	}

	return &Renderer{opts: opts, pages: pages}, nil
}

// Render produces the full page set for both languages.
func (r *Renderer) Render(in Input) (Pages, error) {
	pages := Pages{
		"robots.txt":  r.robots(),
		"sitemap.xml": r.sitemap(in),
	}

	for _, lang := range locale.Languages {
		routes := locale.RoutesFor(lang)

		if err := r.put(pages, lang+"/index.html", r.homePage(lang, in)); err != nil {
			return nil, err
		}

		if len(in.Paintings.Years) > 0 {
			first := in.Paintings.Years[0].Year
			if err := r.put(pages, lang+"/"+routes.Paintings+"/index.html", r.paintingsPage(lang, in, first)); err != nil {
				return nil, err
			}
			for _, y := range in.Paintings.Years {
				key := lang + "/" + routes.Paintings + "/" + strconv.Itoa(y.Year) + "/index.html"
				if err := r.put(pages, key, r.paintingsPage(lang, in, y.Year)); err != nil {
					return nil, err
				}
			}
		}

		if err := r.put(pages, lang+"/"+routes.Watercolors+"/index.html", r.watercolorsPage(lang, in)); err != nil {
			return nil, err
		}
		for _, s := range in.Watercolors.Series {
			key := lang + "/" + routes.Watercolors + "/" + s.ID + "/index.html"
			if err := r.put(pages, key, r.seriesPage(lang, in, s)); err != nil {
				return nil, err
			}
		}

		if err := r.put(pages, lang+"/"+routes.About+"/index.html", r.aboutPage(lang, in)); err != nil {
			return nil, err
		}
		if err := r.put(pages, lang+"/"+routes.Contact+"/index.html", r.contactPage(lang, in)); err != nil {
			return nil, err
		}
	}

	return pages, nil
}

type renderJob struct {
	template string
	data     page
}

func (r *Renderer) put(pages Pages, key string, job renderJob) error {
	var buf bytes.Buffer
	if err := r.pages[job.template].ExecuteTemplate(&buf, "layout", job.data); err != nil {
		return fmt.Errorf("render %s: %w", key, err)
	}
	pages[key] = buf.String()
	return nil
}

// page is the data handed to the layout template.
type page struct {
	Lang           string
	OGLocale       string
	OGLocaleAlt    string
	Routes         locale.Routes
	L              labels
	Active         string
	SiteName       string
	Title          string
	Description    string
	Canonical      string
	BaseURL        string
	ImageURL       string
	ImageAlt       string
	StructuredData []any
	CSS            template.CSS
	Script         template.JS
	Body           any
}

type seo struct {
	path         string
	image        string
	imageAlt     string
	artworkCount int
}

func (r *Renderer) newPage(lang string, in Input, active, title, description string, meta seo, body any) page {
	pref := locale.PreferenceForLanguage(lang)
	p := page{
		Lang:        pref.Language,
		OGLocale:    pref.Locale,
		OGLocaleAlt: locale.PreferenceForLanguage(locale.Other(lang)).Locale,
		Routes:      locale.RoutesFor(lang),
		L:           labelsFor(lang),
		Active:      active,
		SiteName:    r.opts.SiteName,
		Title:       title,
		Description: description,
		Canonical:   r.opts.BaseURL + meta.path,
		BaseURL:     r.opts.BaseURL,
		CSS:         template.CSS(baseCSS + "\n" + in.ThemeCSS),
		Script:      template.JS(siteScript),
		Body:        body,
	}
	if meta.image != "" {
		p.ImageURL = r.fullImage(meta.image)
		p.ImageAlt = meta.imageAlt
		if p.ImageAlt == "" {
			p.ImageAlt = title
		}
	}
	p.StructuredData = r.structuredData(lang, in, active, title, description, meta)
	return p
}

// Absolute image URLs are used as-is for both sizes.
func (r *Renderer) thumbImage(filename string) string {
	if isAbsoluteURL(filename) {
		return filename
	}
	return r.opts.ImageBaseURL + "/thumbs/" + filename
}

func (r *Renderer) fullImage(filename string) string {
	if isAbsoluteURL(filename) {
		return filename
	}
	return r.opts.ImageBaseURL + "/full/" + filename
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

type artworkView struct {
	Src   string
	Full  string
	Title string
	Meta  string
}

func (r *Renderer) artworkView(lang string, art Artwork, thumb, withStatus bool) artworkView {
	l := labelsFor(lang)
	meta := art.Medium.In(lang)
	if art.Dimensions != "" {
		if meta != "" {
			meta += ", "
		}
		meta += art.Dimensions
	}
	if withStatus {
		meta += l.StatusSuffix(art.Status)
	}
	src := r.fullImage(art.Filename)
	if thumb {
		src = r.thumbImage(art.Filename)
	}
	return artworkView{Src: src, Full: r.fullImage(art.Filename), Title: art.Title.In(lang), Meta: meta}
}

type navLink struct {
	URL    string
	Label  string
	Active bool
}

type slideView struct {
	Src string
	Alt string
}

type homeBody struct {
	Slides       []slideView
	Intro        []string
	Featured     []artworkView
	PaintingsURL string
	ViewAll      string
}

func (r *Renderer) homePage(lang string, in Input) renderJob {
	l := labelsFor(lang)
	body := homeBody{
		PaintingsURL: "/" + lang + "/" + locale.RoutesFor(lang).Paintings,
		ViewAll:      l.ViewAllPaintings,
	}
	for _, slide := range in.Paintings.Carousel {
		body.Slides = append(body.Slides, slideView{Src: r.fullImage(slide.Filename), Alt: slide.Alt.In(lang)})
	}
	for _, paragraph := range in.About.Intro {
		body.Intro = append(body.Intro, paragraph.In(lang))
	}
	for _, art := range in.Paintings.Featured {
		body.Featured = append(body.Featured, r.artworkView(lang, art, true, false))
	}

	meta := seo{path: "/" + lang}
	if len(in.Paintings.Carousel) > 0 {
		meta.image = in.Paintings.Carousel[0].Filename
		meta.imageAlt = in.Paintings.Carousel[0].Alt.In(lang)
	}
	title := r.opts.SiteName + " | " + l.HomeTitle
	desc := r.opts.SiteName + " - " + l.HomeDescription
	return renderJob{template: "home", data: r.newPage(lang, in, "home", title, desc, meta, body)}
}

type listingBody struct {
	Heading  string
	Links    []navLink
	Artworks []artworkView
}

func (r *Renderer) paintingsPage(lang string, in Input, year int) renderJob {
	l := labelsFor(lang)
	base := "/" + lang + "/" + locale.RoutesFor(lang).Paintings

	body := listingBody{Heading: l.PaintingsTitle + " " + strconv.Itoa(year)}
	var artworks []Artwork
	for _, y := range in.Paintings.Years {
		body.Links = append(body.Links, navLink{
			URL:    base + "/" + strconv.Itoa(y.Year),
			Label:  strconv.Itoa(y.Year),
			Active: y.Year == year,
		})
		if y.Year == year {
			artworks = y.Artworks
		}
	}
	for _, art := range artworks {
		body.Artworks = append(body.Artworks, r.artworkView(lang, art, false, true))
	}

	meta := seo{path: base + "/" + strconv.Itoa(year), artworkCount: len(artworks)}
	if len(artworks) > 0 {
		meta.image = artworks[0].Filename
		meta.imageAlt = artworks[0].Title.In(lang)
	}
	title := body.Heading + " | " + r.opts.SiteName
	desc := l.PaintingsDesc + " - " + r.opts.SiteName + "."
	return renderJob{template: "paintings", data: r.newPage(lang, in, "paintings", title, desc, meta, body)}
}

type seriesSection struct {
	Heading  string
	URL      string
	Artworks []artworkView
}

type watercolorsBody struct {
	Heading   string
	Links     []navLink
	Sections  []seriesSection
	ViewCycle string
}

func seriesHeading(lang string, s WatercolorSeries) string {
	if s.Year == 0 {
		return s.Title.In(lang)
	}
	return s.Title.In(lang) + ", " + strconv.Itoa(s.Year)
}

func (r *Renderer) seriesLinks(lang string, series []WatercolorSeries, active string) []navLink {
	base := "/" + lang + "/" + locale.RoutesFor(lang).Watercolors
	links := make([]navLink, 0, len(series))
	for _, s := range series {
		links = append(links, navLink{URL: base + "/" + s.ID, Label: s.Title.In(lang), Active: s.ID == active})
	}
	return links
}

func (r *Renderer) watercolorsPage(lang string, in Input) renderJob {
	l := labelsFor(lang)
	base := "/" + lang + "/" + locale.RoutesFor(lang).Watercolors
	body := watercolorsBody{
		Heading:   l.WatercolorsTitle,
		Links:     r.seriesLinks(lang, in.Watercolors.Series, ""),
		ViewCycle: l.ViewCycle,
	}

	meta := seo{path: base}
	for _, s := range in.Watercolors.Series {
		if len(s.Preview) == 0 {
			continue
		}
		if meta.image == "" {
			meta.image = s.Preview[0]
			meta.imageAlt = s.Title.In(lang)
		}
		section := seriesSection{Heading: seriesHeading(lang, s), URL: base + "/" + s.ID}
		for i, filename := range s.Preview {
			if i == 3 {
				break
			}
			section.Artworks = append(section.Artworks, artworkView{
				Src:   r.thumbImage(filename),
				Full:  r.fullImage(filename),
				Title: s.Title.In(lang),
			})
		}
		body.Sections = append(body.Sections, section)
	}

	title := l.WatercolorsTitle + " | " + r.opts.SiteName
	desc := l.WatercolorsDesc + " - " + r.opts.SiteName + "."
	return renderJob{template: "watercolors", data: r.newPage(lang, in, "watercolors", title, desc, meta, body)}
}

func (r *Renderer) seriesPage(lang string, in Input, s WatercolorSeries) renderJob {
	l := labelsFor(lang)
	body := listingBody{
		Heading: seriesHeading(lang, s),
		Links:   r.seriesLinks(lang, in.Watercolors.Series, s.ID),
	}
	for _, art := range s.Artworks {
		body.Artworks = append(body.Artworks, r.artworkView(lang, art, false, false))
	}

	seriesTitle := s.Title.In(lang)
	meta := seo{
		path:         "/" + lang + "/" + locale.RoutesFor(lang).Watercolors + "/" + s.ID,
		imageAlt:     seriesTitle,
		artworkCount: len(s.Artworks),
	}
	if len(s.Artworks) > 0 {
		meta.image = s.Artworks[0].Filename
		meta.imageAlt = s.Artworks[0].Title.In(lang)
	}
	title := seriesTitle + " | " + r.opts.SiteName
	desc := seriesTitle + " - " + l.SeriesMedium
	return renderJob{template: "series", data: r.newPage(lang, in, "watercolors", title, desc, meta, body)}
}

type listEntry struct {
	Year   string
	Name   string
	Hidden bool
}

type aboutBody struct {
	BirthLine   string
	Description string
	Exhibitions []listEntry
	HasHidden   bool
	Residencies []listEntry
	Education   []listEntry
}

func (r *Renderer) aboutPage(lang string, in Input) renderJob {
	l := labelsFor(lang)
	about := in.About
	body := aboutBody{Description: about.Bio.Description.In(lang)}
	if about.Bio.BirthYear > 0 {
		body.BirthLine = "*" + strconv.Itoa(about.Bio.BirthYear)
		if about.Bio.BirthPlace != "" {
			body.BirthLine += ", " + about.Bio.BirthPlace
		}
	}

	var hidden []listEntry
	for _, e := range about.Exhibitions {
		entry := listEntry{Year: strconv.Itoa(e.Year), Name: e.Name.In(lang), Hidden: e.Hidden()}
		if entry.Hidden {
			hidden = append(hidden, entry)
			continue
		}
		body.Exhibitions = append(body.Exhibitions, entry)
	}
	body.Exhibitions = append(body.Exhibitions, hidden...)
	body.HasHidden = len(hidden) > 0

	for _, res := range about.Residencies {
		body.Residencies = append(body.Residencies, listEntry{Year: strconv.Itoa(res.Year), Name: res.Name.In(lang)})
	}
	for _, edu := range about.Education {
		body.Education = append(body.Education, listEntry{Year: edu.Years, Name: edu.Name.In(lang)})
	}

	title := l.About + " | " + r.opts.SiteName
	desc := r.opts.SiteName + " - " + l.AboutDesc
	meta := seo{path: "/" + lang + "/" + locale.RoutesFor(lang).About}
	return renderJob{template: "about", data: r.newPage(lang, in, "about", title, desc, meta, body)}
}

type socialView struct {
	Name string
	URL  template.URL
	Icon template.HTML
}

type contactBody struct {
	Intro        string
	Location     string
	EmailEncoded string
	PhoneEncoded string
	Social       []socialView
}

func (r *Renderer) contactPage(lang string, in Input) renderJob {
	l := labelsFor(lang)
	contact := in.Contact
	body := contactBody{
		Intro:        contact.Intro.In(lang),
		Location:     contact.Location.In(lang),
		EmailEncoded: base64.StdEncoding.EncodeToString([]byte(contact.Email)),
		PhoneEncoded: base64.StdEncoding.EncodeToString([]byte(contact.Phone)),
	}
	for _, s := range contact.Social {
		body.Social = append(body.Social, socialView{Name: s.Name, URL: SafeURL(s.URL), Icon: view.SocialIconSVG(s.Name)})
	}

	title := l.Contact + " | " + r.opts.SiteName
	meta := seo{path: "/" + lang + "/" + locale.RoutesFor(lang).Contact}
	return renderJob{template: "contact", data: r.newPage(lang, in, "contact", title, body.Intro, meta, body)}
}
