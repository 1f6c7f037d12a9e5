// Package letras scrapes artist lists, song lists and lyrics from
// letras.com style pages.
//
// The package handles three page types:
//
//  1. Genre ranking pages listing the most accessed artists
//  2. Artist pages listing the most played songs
//  3. Song pages carrying the lyrics and, sometimes, the composer
//
// # Layouts
//
// The site has changed markup over time. Every parser tries the current
// layout first, then the previous one, then a generic fallback:
//
//	songs:  tr.songList-table-row a  ->  ul.cnt-list-songs li a  ->  links under the artist slug
//	lyrics: div/section with a lyric or letra class  ->  div.cnt-letra  ->  longest text block
//
// The heuristics are deliberately simple. A page that matches none of them
// yields ErrNoArtists, ErrNoSongs or ErrNoLyrics, all of which wrap
// model.ErrNotFound.
//
// # Basic Usage
//
//	s := letras.NewScraper(letras.DefaultBaseURL, client, limiter, policy, nil)
//
//	artists, err := s.GenreArtists(ctx, "rock")      // ["/legiao-urbana/", ...]
//	songs, err := s.ArtistSongs(ctx, artists[0])     // ["/legiao-urbana/22490/", ...]
//	lyrics, err := s.Lyrics(ctx, songs[0])
package letras
