package extract

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// MaxCompanies is the number of candidate tokens kept per article.
const MaxCompanies = 5

// upperRun matches maximal runs of three or more ASCII capitals. Word
// boundaries are checked separately by bounded.
var upperRun = regexp.MustCompile(`[A-Z]{3,}`)

// Extract returns candidate company names found in text, in order of
// appearance, capped at MaxCompanies. Repeated tokens are kept.
//
// A run only counts when it is not touching another word character, where
// word characters are Unicode letters, numbers and '_'. "NESTLÉ", "ABC1"
// and "_ABC" yield nothing.
func Extract(text string) []string {
	var out []string
	for _, loc := range upperRun.FindAllStringIndex(text, -1) {
		if !bounded(text, loc[0], loc[1]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
		if len(out) == MaxCompanies {
			break
		}
	}
	return out
}

func bounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// ArticleText joins the fields of an article that are scanned for names.
func ArticleText(title, description string) string {
	return title + " " + description
}
