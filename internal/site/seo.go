package site

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/atelier/internal/locale"
)

type ldListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type ldBreadcrumbs struct {
	Context string       `json:"@context"`
	Type    string       `json:"@type"`
	Items   []ldListItem `json:"itemListElement"`
}

type ldPerson struct {
	Context  string   `json:"@context,omitempty"`
	Type     string   `json:"@type"`
	Name     string   `json:"name"`
	JobTitle string   `json:"jobTitle,omitempty"`
	URL      string   `json:"url,omitempty"`
	SameAs   []string `json:"sameAs,omitempty"`
}

type ldGallery struct {
	Context       string   `json:"@context"`
	Type          string   `json:"@type"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	URL           string   `json:"url"`
	NumberOfItems int      `json:"numberOfItems"`
	Author        ldPerson `json:"author"`
}

const schemaContext = "https://schema.org"

func (r *Renderer) structuredData(lang string, in Input, active, title, description string, meta seo) []any {
	var out []any

	parts := strings.FieldsFunc(meta.path, func(c rune) bool { return c == '/' })
	if len(parts) > 0 {
		items := []ldListItem{{Type: "ListItem", Position: 1, Name: r.opts.SiteName, Item: r.opts.BaseURL}}
		current := ""
		for i, part := range parts {
			current += "/" + part
			items = append(items, ldListItem{
				Type:     "ListItem",
				Position: i + 2,
				Name:     segmentName(part),
				Item:     r.opts.BaseURL + current,
			})
		}
		out = append(out, ldBreadcrumbs{Context: schemaContext, Type: "BreadcrumbList", Items: items})
	}

	if meta.artworkCount > 0 {
		out = append(out, ldGallery{
			Context:       schemaContext,
			Type:          "ImageGallery",
			Name:          title,
			Description:   description,
			URL:           r.opts.BaseURL + meta.path,
			NumberOfItems: meta.artworkCount,
			Author:        ldPerson{Type: "Person", Name: r.opts.SiteName},
		})
	}

	if active == "about" || active == "home" {
		var sameAs []string
		for _, s := range in.Contact.Social {
			u := strings.TrimSpace(s.URL)
			if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
				sameAs = append(sameAs, u)
			}
		}
		out = append(out, ldPerson{
			Context:  schemaContext,
			Type:     "Person",
			Name:     r.opts.SiteName,
			JobTitle: labelsFor(lang).JobTitle,
			URL:      r.opts.BaseURL,
			SameAs:   sameAs,
		})
	}

	return out
}

var blockedCrawlers = []string{
	"GPTBot",
	"ChatGPT-User",
	"CCBot",
	"Google-Extended",
	"anthropic-ai",
	"Claude-Web",
	"Omgilibot",
	"FacebookBot",
	"Bytespider",
	"cohere-ai",
	"img2dataset",
}

// robots allows search engines and blocks AI training crawlers.
func (r *Renderer) robots() string {
	var b strings.Builder
	b.WriteString("# robots.txt for " + r.opts.SiteName + "\n\n")
	b.WriteString("User-agent: *\nAllow: /\n")
	for _, agent := range blockedCrawlers {
		b.WriteString("\nUser-agent: " + agent + "\nDisallow: /\n")
	}
	b.WriteString("\nUser-agent: Diffbot\nDisallow: /images/\n")
	b.WriteString("\nSitemap: " + r.opts.BaseURL + "/sitemap.xml\n")
	return b.String()
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (r *Renderer) sitemap(in Input) string {
	lastMod := ""
	if !in.LastModified.IsZero() {
		lastMod = in.LastModified.UTC().Format("2006-01-02")
	}

	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	add := func(path, freq, priority string) {
		set.URLs = append(set.URLs, sitemapURL{Loc: r.opts.BaseURL + path, LastMod: lastMod, ChangeFreq: freq, Priority: priority})
	}

	for _, lang := range locale.Languages {
		routes := locale.RoutesFor(lang)
		add("/"+lang, "weekly", "1.0")
		if len(in.Paintings.Years) > 0 {
			add("/"+lang+"/"+routes.Paintings, "weekly", "0.9")
		}
		add("/"+lang+"/"+routes.Watercolors, "weekly", "0.9")
		add("/"+lang+"/"+routes.About, "monthly", "0.7")
		add("/"+lang+"/"+routes.Contact, "monthly", "0.7")
	}
	for _, lang := range locale.Languages {
		routes := locale.RoutesFor(lang)
		for _, y := range in.Paintings.Years {
			add("/"+lang+"/"+routes.Paintings+"/"+strconv.Itoa(y.Year), "monthly", "0.8")
		}
		for _, s := range in.Watercolors.Series {
			add("/"+lang+"/"+routes.Watercolors+"/"+s.ID, "monthly", "0.8")
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return xml.Header
	}
	return xml.Header + string(body) + "\n"
}
