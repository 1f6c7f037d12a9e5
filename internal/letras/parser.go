package letras

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/handiism/lyrics-harvester/internal/model"
)

// Parse errors. All of them wrap model.ErrNotFound.
var (
	ErrNoArtists = fmt.Errorf("no artists on page: %w", model.ErrNotFound)
	ErrNoSongs   = fmt.Errorf("no songs on page: %w", model.ErrNotFound)
	ErrNoLyrics  = fmt.Errorf("no lyrics on page: %w", model.ErrNotFound)
)

// minFallbackText is the shortest text block the lyrics fallback accepts.
const minFallbackText = 100

var skipInFallback = []string{"ouvir", "radio", "discografia", "biografia"}

var composerSelectors = []string{
	"div[class*='composer']",
	"div[class*='author']",
	"div[class*='comp']",
	"span[class*='composer']",
	"span[class*='author']",
}

// ParseArtists extracts artist paths from a genre ranking page.
func ParseArtists(doc *goquery.Document) ([]string, error) {
	var artists []string
	doc.Find("ol.top-list_art li").Each(func(_ int, li *goquery.Selection) {
		if href, ok := li.Find("a").First().Attr("href"); ok && href != "" {
			artists = append(artists, href)
		}
	})

	if len(artists) == 0 {
		return nil, ErrNoArtists
	}
	return dedupe(artists), nil
}

// ParseSongs extracts song paths from an artist page. artistPath is the
// artist's path on the site, for example "/legiao-urbana/".
func ParseSongs(doc *goquery.Document, artistPath string) ([]string, error) {
	for _, extract := range []func() []string{
		func() []string { return songsNewLayout(doc) },
		func() []string { return songsOldLayout(doc) },
		func() []string { return songsFallback(doc, artistPath) },
	} {
		if songs := extract(); len(songs) > 0 {
			return dedupe(songs), nil
		}
	}
	return nil, ErrNoSongs
}

func songsNewLayout(doc *goquery.Document) []string {
	var songs []string
	doc.Find("tr.songList-table-row").Each(func(_ int, row *goquery.Selection) {
		href, ok := row.Find("a[href]").First().Attr("href")
		if ok && strings.HasPrefix(href, "/") && strings.Count(href, "/") >= 2 {
			songs = append(songs, href)
		}
	})
	return songs
}

func songsOldLayout(doc *goquery.Document) []string {
	var songs []string
	doc.Find("ul.cnt-list-songs li").Each(func(_ int, li *goquery.Selection) {
		if href, ok := li.Find("a").First().Attr("href"); ok && href != "" {
			songs = append(songs, href)
		}
	})
	return songs
}

func songsFallback(doc *goquery.Document, artistPath string) []string {
	slug := strings.Trim(artistPath, "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	if slug == "" {
		return nil
	}

	var songs []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, slug) || !strings.HasPrefix(href, "/") || strings.Count(href, "/") < 2 {
			return
		}
		for _, skip := range skipInFallback {
			if strings.Contains(href, skip) {
				return
			}
		}
		songs = append(songs, href)
	})
	return songs
}

// ParseLyrics extracts the lyrics text and composer credit from a song page.
// The text keeps line breaks; stanzas are separated by blank lines.
func ParseLyrics(doc *goquery.Document) (model.Lyrics, error) {
	title := strings.TrimSpace(doc.Find("h1").First().Text())

	if text, ok := lyricsNewLayout(doc); ok {
		return model.Lyrics{Title: title, Text: text, Composer: composerNewLayout(doc)}, nil
	}
	if text, ok := lyricsOldLayout(doc); ok {
		composer := strings.TrimSpace(doc.Find("div.letra-info_comp").First().Text())
		return model.Lyrics{Title: title, Text: text, Composer: composer}, nil
	}
	if text, ok := lyricsFallback(doc); ok {
		return model.Lyrics{Title: title, Text: text}, nil
	}
	return model.Lyrics{}, ErrNoLyrics
}

func lyricsNewLayout(doc *goquery.Document) (string, bool) {
	candidates := []struct {
		tag  string
		keys []string
	}{
		{"div", []string{"lyric"}},
		{"div", []string{"letra"}},
		{"section", []string{"lyric", "letra"}},
	}

	for _, c := range candidates {
		container := doc.Find(c.tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
			class := strings.ToLower(s.AttrOr("class", ""))
			for _, k := range c.keys {
				if strings.Contains(class, k) {
					return true
				}
			}
			return false
		}).First()

		if container.Length() == 0 {
			continue
		}
		text := containerText(container)
		return text, text != ""
	}
	return "", false
}

func lyricsOldLayout(doc *goquery.Document) (string, bool) {
	container := doc.Find("div.cnt-letra").First()
	if container.Length() == 0 {
		return "", false
	}
	if container.Find("p").Length() == 0 {
		return "", false
	}
	text := paragraphs(container)
	return text, text != ""
}

func lyricsFallback(doc *goquery.Document) (string, bool) {
	var (
		longest *goquery.Selection
		best    int
	)
	doc.Find("div, p, section").Each(func(_ int, s *goquery.Selection) {
		n := utf8.RuneCountInString(joinedText(s, ""))
		if n > minFallbackText && n > best {
			longest, best = s, n
		}
	})
	if longest == nil {
		return "", false
	}
	return joinedText(longest, "\n"), true
}

func composerNewLayout(doc *goquery.Document) string {
	for _, sel := range composerSelectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			return strings.TrimSpace(joinedText(el, ""))
		}
	}
	return ""
}

// containerText prefers <p> stanzas and falls back to the container's text.
func containerText(container *goquery.Selection) string {
	if container.Find("p").Length() > 0 {
		return paragraphs(container)
	}
	return joinedText(container, "\n")
}

func paragraphs(container *goquery.Selection) string {
	var stanzas []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		p.Find("br").ReplaceWithHtml("\n")
		if text := strings.TrimSpace(p.Text()); text != "" {
			stanzas = append(stanzas, text)
		}
	})
	return strings.Join(stanzas, "\n\n")
}

// joinedText concatenates the trimmed text nodes under s with sep.
func joinedText(s *goquery.Selection, sep string) string {
	var parts []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		var text string
		switch goquery.NodeName(c) {
		case "#text":
			text = strings.TrimSpace(c.Text())
		case "script", "style", "noscript":
			return
		default:
			text = joinedText(c, sep)
		}
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, sep)
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	unique := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return unique
}
