package locale

import "strings"

const (
	LanguageCzech   = "cs"
	LanguageEnglish = "en"
)

// Languages 是站点渲染的全部语言，按输出顺序排列。
var Languages = []string{LanguageCzech, LanguageEnglish}

type Preference struct {
	Language string
	Locale   string
	HTMLLang string
}

// Routes 是某一语言下各栏目的 URL 片段。
type Routes struct {
	Paintings   string
	Watercolors string
	About       string
	Contact     string
}

var routes = map[string]Routes{
	LanguageCzech:   {Paintings: "malby", Watercolors: "akvarely", About: "o-mne", Contact: "kontakt"},
	LanguageEnglish: {Paintings: "paintings", Watercolors: "watercolors", About: "about", Contact: "contact"},
}

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "cs") || trimmed == "cz" {
		return LanguageCzech
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

func PreferenceForLanguage(language string) Preference {
	normalized := NormalizeLanguage(language)
	if normalized == LanguageEnglish {
		return Preference{Language: LanguageEnglish, Locale: "en_US", HTMLLang: "en"}
	}
	return Preference{Language: LanguageCzech, Locale: "cs_CZ", HTMLLang: "cs"}
}

// RoutesFor 返回语言对应的栏目路径，未知语言回退到捷克语。
func RoutesFor(language string) Routes {
	if NormalizeLanguage(language) == LanguageEnglish {
		return routes[LanguageEnglish]
	}
	return routes[LanguageCzech]
}

// Other 返回另一种站点语言，用于语言切换链接。
func Other(language string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		return LanguageCzech
	}
	return LanguageEnglish
}
