// Package cleaner normalizes scraped lyrics and decides which songs are
// worth enriching.
package cleaner

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/handiism/lyrics-harvester/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MinLyricsLength is the shortest cleaned text kept, in runes.
	MinLyricsLength = 15
	// MinPlaceholderLength applies to songs named after their artist; such
	// pages are usually navigation debris.
	MinPlaceholderLength = 50
	// MaxQueryLength bounds each search term, in runes.
	MaxQueryLength = 30
)

// Boilerplate left on lyrics pages by the site's UI, in Portuguese and
// Spanish. Matching is case-insensitive and spans lines.
var navigation = compileAll(
	`Iniciar sesión o crear cuenta\s*Cuenta`,
	`Iniciar sesión o crear cuenta`,
	`Envie dúvidas, explicações e curiosidades sobre a letra`,
	`Tire dúvidas sobre idiomas.*?da música\.`,
	`Confira nosso.*?para deixar comentários\.`,
	`Dúvidas enviadas podem receber respostas.*?plataforma\.`,
	`Opções de seleção`,
	`Todavía no recibimos esta contribución.*?enviárnosla\?`,
	`¿Los datos están equivocados\? Avísanos\.`,
	`Compuesta por:.*?Avísanos\.`,
	`<p class="[^"]*">.*?</p>`,
	`<[^>]+>`,
	`class="[^"]*"`,
	`href="[^"]*"`,
	`target="_blank"`,
	`font --base --[^"\s]*`,
)

var (
	blankLines  = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaces      = regexp.MustCompile(`[ \t]+`)
	trailing    = regexp.MustCompile(`(?m)[ \t]+$`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	titleCaser  = cases.Title(language.Und)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(`(?is)` + p)
	}
	return res
}

// Clean strips site boilerplate and markup and normalizes whitespace:
// at most one blank line between stanzas and single spaces within lines.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range navigation {
		text = re.ReplaceAllString(text, "")
	}
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaces.ReplaceAllString(text, " ")
	text = trailing.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Validate reports whether cleaned lyrics belong to a real song. It returns
// an error wrapping model.ErrMalformedInput when the text is too short, or
// when the song is named after its artist and the text is suspiciously
// short.
func Validate(songPath, artistPath, lyrics string) error {
	n := utf8.RuneCountInString(lyrics)
	if n < MinLyricsLength {
		return fmt.Errorf("%s: lyrics too short (%d): %w", songPath, n, model.ErrMalformedInput)
	}
	if squash(lastSegment(songPath)) == squash(lastSegment(artistPath)) && n < MinPlaceholderLength {
		return fmt.Errorf("%s: artist placeholder page: %w", songPath, model.ErrMalformedInput)
	}
	return nil
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// TitleFromPath derives a display title from a song path such as
// "/legiao-urbana/tempo-perdido/".
func TitleFromPath(songPath string) string {
	return displayName(lastSegment(songPath))
}

// ArtistFromPath derives a display name from an artist path such as
// "/legiao-urbana/".
func ArtistFromPath(artistPath string) string {
	return displayName(lastSegment(artistPath))
}

// SanitizeQuery removes punctuation and truncates a search term.
func SanitizeQuery(s string) string {
	s = punctuation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > MaxQueryLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxQueryLength]))
	}
	return s
}

func displayName(segment string) string {
	return titleCaser.String(strings.TrimSpace(strings.ReplaceAll(segment, "-", " ")))
}

func lastSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func squash(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, " ", "")
}
