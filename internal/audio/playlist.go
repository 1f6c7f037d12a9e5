package audio

import (
	"fmt"
	"strings"

	"github.com/handiism/lyrics-harvester/internal/model"
)

// PlaylistFormat represents supported playlist file formats.
//
// Each format has different features and compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp
//   - WPL: XML format, Windows Media Player
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible).
	// Can be extended with EXTINF lines for duration/title info.
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS

	// FormatWPL creates .wpl files (Windows Media Player).
	FormatWPL
)

// ParsePlaylistFormat maps "m3u", "pls" and "wpl" to a format. Anything
// else is M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch strings.ToLower(s) {
	case "pls":
		return FormatPLS
	case "wpl":
		return FormatWPL
	default:
		return FormatM3U
	}
}

// Playlist is a named list of songs.
type Playlist struct {
	Name  string
	Songs []model.Song
}

// PlaylistCreator renders playlists whose entries are catalog track URLs.
// Songs without a catalog match are skipped.
//
// Example:
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(playlist)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:301,Legião Urbana - Tempo Perdido
//	// https://open.spotify.com/track/...
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator. extended only affects
// M3U output.
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// Extension returns the file extension for the creator's format.
func (p *PlaylistCreator) Extension() string {
	switch p.format {
	case FormatPLS:
		return ".pls"
	case FormatWPL:
		return ".wpl"
	default:
		return ".m3u"
	}
}

// CreatePlaylist generates playlist content.
func (p *PlaylistCreator) CreatePlaylist(pl Playlist) string {
	entries := matched(pl.Songs)
	switch p.format {
	case FormatPLS:
		return p.createPLS(entries)
	case FormatWPL:
		return p.createWPL(pl.Name, entries)
	default:
		return p.createM3U(entries)
	}
}

// createM3U generates an M3U playlist.
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:180,Artist - Title
//	https://open.spotify.com/track/id
func (p *PlaylistCreator) createM3U(songs []model.Song) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, s := range songs {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s - %s\n", s.Spotify.DurationMs/1000, s.Artist, s.Title)
		}
		sb.WriteString(s.Spotify.URL + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=https://open.spotify.com/track/id
//	Title1=Artist - Title
//	Length1=180
//	NumberOfEntries=1
//	Version=2
func (p *PlaylistCreator) createPLS(songs []model.Song) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, s := range songs {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, s.Spotify.URL)
		fmt.Fprintf(&sb, "Title%d=%s - %s\n", idx, s.Artist, s.Title)
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, s.Spotify.DurationMs/1000)
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(songs))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player playlist.
func (p *PlaylistCreator) createWPL(name string, songs []model.Song) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", escapeXML(name))
	fmt.Fprintf(&sb, "    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(songs))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, s := range songs {
		fmt.Fprintf(&sb, "      <media src=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\"/>\n",
			escapeXML(s.Spotify.URL), escapeXML(s.Title), escapeXML(s.Artist))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// SuitabilityPlaylists groups matched songs by suitability flag. Empty
// groups are omitted; the order of playlists is fixed.
func SuitabilityPlaylists(songs []model.Song) []Playlist {
	groups := []struct {
		name string
		ok   func(model.PlaylistSuitability) bool
	}{
		{"party", func(s model.PlaylistSuitability) bool { return s.Party }},
		{"work_study", func(s model.PlaylistSuitability) bool { return s.WorkStudy }},
		{"relaxation", func(s model.PlaylistSuitability) bool { return s.Relaxation }},
		{"exercise", func(s model.PlaylistSuitability) bool { return s.Exercise }},
		{"running", func(s model.PlaylistSuitability) bool { return s.Running }},
		{"yoga", func(s model.PlaylistSuitability) bool { return s.Yoga }},
		{"driving", func(s model.PlaylistSuitability) bool { return s.Driving }},
		{"social", func(s model.PlaylistSuitability) bool { return s.Social }},
		{"morning", func(s model.PlaylistSuitability) bool { return s.Morning }},
	}

	songs = matched(songs)
	var playlists []Playlist
	for _, g := range groups {
		pl := Playlist{Name: g.name}
		for _, s := range songs {
			if g.ok(s.Suitability) {
				pl.Songs = append(pl.Songs, s)
			}
		}
		if len(pl.Songs) > 0 {
			playlists = append(playlists, pl)
		}
	}
	return playlists
}

func matched(songs []model.Song) []model.Song {
	var out []model.Song
	for _, s := range songs {
		if s.SpotifyFound && s.Spotify != nil && s.Spotify.URL != "" {
			out = append(out, s)
		}
	}
	return out
}

// escapeXML escapes special XML characters in a string.
//
// Replaces: & < > " '
// With:     &amp; &lt; &gt; &quot; &apos;
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
