// Package language normalises language codes and decides which codes the
// translator is allowed to see.
package language

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// Undetermined is returned by identifiers that cannot tell the language.
const Undetermined = "und"

// Normalize converts a BCP 47 tag to its lower case base language.
//   - "EN" -> "en"
//   - "fr-CA" -> "fr"
//   - "zh_Hant" -> "zh"
func Normalize(tag string) string {
	lang := strings.ToLower(strings.TrimSpace(tag))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	return lang
}

// Set is an immutable collection of supported base codes.
type Set struct {
	codes map[string]struct{}
}

// NewSet builds a set from arbitrary tags.
func NewSet(tags ...string) Set {
	codes := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if code := Normalize(tag); code != "" {
			codes[code] = struct{}{}
		}
	}
	return Set{codes: codes}
}

// Supports reports whether tag's base language is in the set.
func (s Set) Supports(tag string) bool {
	_, ok := s.codes[Normalize(tag)]
	return ok
}

// Codes returns the sorted base codes.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for code := range s.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the normalised tag when supported, otherwise fallback.
// Unsupported codes are substituted silently.
func Resolve(tag string, supports func(string) bool, fallback string) string {
	code := Normalize(tag)
	if code == "" || code == Undetermined || !supports(code) {
		return fallback
	}
	return code
}

// scriptLanguages maps scripts that identify a single language reasonably well.
var scriptLanguages = []struct {
	table *unicode.RangeTable
	code  string
}{
	{unicode.Hiragana, "ja"},
	{unicode.Katakana, "ja"},
	{unicode.Hangul, "ko"},
	{unicode.Han, "zh"},
	{unicode.Arabic, "ar"},
	{unicode.Hebrew, "he"},
	{unicode.Greek, "el"},
	{unicode.Cyrillic, "ru"},
	{unicode.Thai, "th"},
	{unicode.Devanagari, "hi"},
	{unicode.Georgian, "ka"},
	{unicode.Armenian, "hy"},
}

// ScriptIdentifier guesses a language from the dominant Unicode script.
// It works offline and is used when no identification model is configured.
// Latin text is reported as LatinDefault; mixed or letterless text is undetermined.
type ScriptIdentifier struct {
	LatinDefault string
	// Threshold is the share of letters the dominant script must reach.
	Threshold float64
}

// NewScriptIdentifier returns an identifier with sensible defaults.
func NewScriptIdentifier() *ScriptIdentifier {
	return &ScriptIdentifier{LatinDefault: "en", Threshold: 0.6}
}

// Identify implements the language identifier capability.
func (s *ScriptIdentifier) Identify(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	counts := make(map[string]int)
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Latin, r) {
			counts[s.LatinDefault]++
			continue
		}
		for _, sl := range scriptLanguages {
			if unicode.Is(sl.table, r) {
				counts[sl.code]++
				break
			}
		}
	}
	if letters == 0 {
		return Undetermined, nil
	}

	// Japanese text mixes kana with Han characters.
	if counts["ja"] > 0 && counts["zh"] > 0 {
		counts["ja"] += counts["zh"]
		delete(counts, "zh")
	}

	best, bestCount := Undetermined, 0
	for code, n := range counts {
		if n > bestCount || (n == bestCount && code < best) {
			best, bestCount = code, n
		}
	}
	if float64(bestCount)/float64(letters) < s.Threshold {
		return Undetermined, nil
	}
	return best, nil
}
