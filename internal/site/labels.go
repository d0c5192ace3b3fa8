package site

import "github.com/atelier/internal/locale"

type labels struct {
	Paintings        string
	Watercolors      string
	About            string
	Contact          string
	Home             string
	HomeTitle        string
	HomeDescription  string
	PaintingsTitle   string
	PaintingsDesc    string
	WatercolorsTitle string
	WatercolorsDesc  string
	SeriesMedium     string
	AboutDesc        string
	ViewAllPaintings string
	ViewCycle        string
	Exhibitions      string
	Residencies      string
	Education        string
	ShowAll          string
	ShowLess         string
	Phone            string
	Location         string
	Online           string
	NoScriptContact  string
	Sold             string
	Donated          string
	JobTitle         string
	Close            string
	Previous         string
	Next             string
	Menu             string
}

var labelSets = map[string]labels{
	locale.LanguageCzech: {
		Paintings:        "Malby",
		Watercolors:      "Akvarely, Tuše",
		About:            "O mně",
		Contact:          "Kontakt",
		Home:             "Domů",
		HomeTitle:        "Malba",
		HomeDescription:  "olejomalby, akvarely a kresby tuší.",
		PaintingsTitle:   "Malby",
		PaintingsDesc:    "Olejomalby",
		WatercolorsTitle: "Akvarely a Tuše",
		WatercolorsDesc:  "Akvarely a kresby tuší",
		SeriesMedium:     "akvarel a tuš",
		AboutDesc:        "Životopis, výstavy, stáže a vzdělání.",
		ViewAllPaintings: "Zobrazit všechny malby",
		ViewCycle:        "Zobrazit celý cyklus",
		Exhibitions:      "Výstavy",
		Residencies:      "Stáže",
		Education:        "Vzdělání",
		ShowAll:          "Zobrazit vše ↓",
		ShowLess:         "Zobrazit méně ↑",
		Phone:            "Telefon",
		Location:         "Lokace",
		Online:           "Na webu",
		NoScriptContact:  "Povolte JavaScript pro zobrazení kontaktních údajů.",
		Sold:             " · PRODÁNO",
		Donated:          " · VĚNOVÁNO",
		JobTitle:         "Malířka",
		Close:            "Zavřít",
		Previous:         "Předchozí",
		Next:             "Další",
		Menu:             "Menu",
	},
	locale.LanguageEnglish: {
		Paintings:        "Paintings",
		Watercolors:      "Watercolors, Ink",
		About:            "About",
		Contact:          "Contact",
		Home:             "Home",
		HomeTitle:        "Painting",
		HomeDescription:  "oil paintings, watercolors and ink drawings.",
		PaintingsTitle:   "Paintings",
		PaintingsDesc:    "Oil paintings",
		WatercolorsTitle: "Watercolors and Ink",
		WatercolorsDesc:  "Watercolors and ink drawings",
		SeriesMedium:     "watercolor and ink",
		AboutDesc:        "Biography, exhibitions, residencies and education.",
		ViewAllPaintings: "View all paintings",
		ViewCycle:        "View full cycle",
		Exhibitions:      "Exhibitions",
		Residencies:      "Residencies",
		Education:        "Education",
		ShowAll:          "Show all ↓",
		ShowLess:         "Show less ↑",
		Phone:            "Phone",
		Location:         "Location",
		Online:           "Online",
		NoScriptContact:  "Enable JavaScript to see contact details.",
		Sold:             " · SOLD",
		Donated:          " · DONATED",
		JobTitle:         "Painter",
		Close:            "Close",
		Previous:         "Previous",
		Next:             "Next",
		Menu:             "Menu",
	},
}

func labelsFor(language string) labels {
	if locale.NormalizeLanguage(language) == locale.LanguageEnglish {
		return labelSets[locale.LanguageEnglish]
	}
	return labelSets[locale.LanguageCzech]
}

// StatusSuffix is appended to the artwork meta line.
func (l labels) StatusSuffix(status string) string {
	switch status {
	case "sold":
		return l.Sold
	case "donated":
		return l.Donated
	default:
		return ""
	}
}

// segmentName names a URL segment in breadcrumbs; unknown segments such as
// years or series ids are used as-is.
func segmentName(segment string) string {
	for _, language := range locale.Languages {
		r := locale.RoutesFor(language)
		l := labelsFor(language)
		switch segment {
		case language:
			return l.Home
		case r.Paintings:
			return l.PaintingsTitle
		case r.Watercolors:
			return l.WatercolorsTitle
		case r.About:
			return l.About
		case r.Contact:
			return l.Contact
		}
	}
	return segment
}
