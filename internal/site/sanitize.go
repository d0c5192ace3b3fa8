package site

import (
	"html/template"
	"path"
	"regexp"
	"strings"
)

var (
	cssValueForbidden = regexp.MustCompile("[{}<>;\"'`\\\\]")
	cssURLToken       = regexp.MustCompile(`(?i)url\s*\(`)
	cssKeyForbidden   = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	safeURLPattern    = regexp.MustCompile(`(?i)^(https?://|mailto:|tel:)`)
)

// SanitizeCSSValue drops characters that could close a declaration or a
// style element, and any url( token.
func SanitizeCSSValue(value string) string {
	sanitized := cssValueForbidden.ReplaceAllString(value, "")
	return cssURLToken.ReplaceAllString(sanitized, "")
}

// SanitizeCSSKey keeps only [a-zA-Z0-9-].
func SanitizeCSSKey(key string) string {
	return cssKeyForbidden.ReplaceAllString(key, "")
}

// ThemeVar is one CSS custom property.
type ThemeVar struct {
	Key   string
	Value string
}

// ThemeCSS renders vars as a :root block, sanitizing both keys and values.
func ThemeCSS(vars []ThemeVar) string {
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		lines = append(lines, "  --"+SanitizeCSSKey(v.Key)+": "+SanitizeCSSValue(v.Value)+";")
	}
	return ":root {\n" + strings.Join(lines, "\n") + "\n}"
}

// SafeURL allows http(s), mailto, tel and root-relative links. Anything else
// becomes "#".
func SafeURL(raw string) template.URL {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if safeURLPattern.MatchString(trimmed) || (strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "//")) {
		return template.URL(trimmed)
	}
	return "#"
}

// ContentType derives the upload content type from the file extension.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".xml":
		return "application/xml; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}
