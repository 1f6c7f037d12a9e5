package cleaner

import (
	"regexp"
	"strings"
)

// Artists known to sing in Spanish, as site slugs.
var spanishArtists = []string{
	"karol-g", "bad-bunny", "j-balvin", "maluma", "ozuna", "anuel-aa", "daddy-yankee",
	"luis-fonsi", "cnco", "jesse-joy", "mau-y-ricky", "camilo", "sebastian-yatra",
	"rosalia", "shakira", "manu-chao", "alvaro-soler", "enrique-iglesias",
	"marc-anthony", "victor-manuelle", "gilberto-santa-rosa", "la-india",
	"romeo-santos", "prince-royce", "aventura", "bachata-heightz",
	"carlos-vives", "fonseca", "jesse-uribe", "silvestre-dangond",
	"grupo-niche", "la-sonora-poncena", "willie-colon", "ruben-blades",
	"manu-negra", "orishas", "bomba-estereo", "aterciopelados",
	"cafe-tacvba", "molotov", "maldita-vecindad", "los-fabulosos-cadillacs",
	"soda-stereo", "gustavo-cerati", "charly-garcia", "fito-paez",
	"enanitos-verdes", "los-prisioneros", "la-ley", "lucybell",
	"mana", "caifanes", "heroes-del-silencio", "jarabe-de-palo",
}

// Genres sung mostly in Spanish.
var spanishGenres = []string{
	"reggaeton", "salsa", "bachata", "merengue", "cumbia", "vallenato",
	"ranchera", "mariachi", "bolero", "trova", "corridos", "regional",
	"flamenco", "tango", "andina", "folclore", "tropical", "balada",
}

var hispanicKeywords = map[string]bool{
	"los": true, "las": true, "el": true, "la": true, "grupo": true, "banda": true,
	"orquesta": true, "conjunto": true, "son": true, "salsa": true, "merengue": true,
	"bachata": true, "cumbia": true, "vallenato": true,
}

var hispanicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(mc|dj)\s+[a-z]+\b`),
	regexp.MustCompile(`\b[a-z]+\s+(jr|junior|hijo)\b`),
	regexp.MustCompile(`\b(don|doña)\s+[a-z]+\b`),
}

// SpanishFilter guesses from an artist slug and the genre it was listed
// under whether the artist sings in Spanish.
type SpanishFilter struct {
	artists []string
	genres  map[string]bool
}

// NewSpanishFilter returns a filter over the built-in artist and genre
// lists extended with extraArtists and extraGenres.
func NewSpanishFilter(extraArtists, extraGenres []string) *SpanishFilter {
	f := &SpanishFilter{genres: make(map[string]bool)}
	for _, a := range append(spanishArtists[:len(spanishArtists):len(spanishArtists)], extraArtists...) {
		if a = slug(a); a != "" {
			f.artists = append(f.artists, a)
		}
	}
	for _, g := range append(spanishGenres[:len(spanishGenres):len(spanishGenres)], extraGenres...) {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			f.genres[g] = true
		}
	}
	return f
}

// Match reports whether artistPath, listed under genre, probably sings in
// Spanish. Known artists and keywords match whole words only, so "la" does
// not match "blake".
func (f *SpanishFilter) Match(artistPath, genre string) bool {
	if f.genres[strings.ToLower(strings.TrimSpace(genre))] {
		return true
	}

	s := slug(artistPath)
	if s == "" {
		return false
	}
	padded := "-" + s + "-"
	for _, a := range f.artists {
		if strings.Contains(padded, "-"+a+"-") {
			return true
		}
	}

	name := strings.ReplaceAll(s, "-", " ")
	for _, w := range strings.Fields(name) {
		if hispanicKeywords[w] {
			return true
		}
	}
	for _, re := range hispanicPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// slug lowercases an artist path and drops its slashes:
// "/Los-Prisioneros/" becomes "los-prisioneros".
func slug(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	return strings.ReplaceAll(strings.Trim(p, "/"), "/", "")
}
