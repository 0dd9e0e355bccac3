package pipeline

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// NormalizeLanguage maps a fence info language to chroma's primary alias
// for that lexer, so "golang" and "Go" both become "go". Languages chroma
// does not know are returned trimmed but otherwise unchanged.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return lang
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}
