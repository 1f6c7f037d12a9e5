package letras

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	httpclient "github.com/handiism/lyrics-harvester/internal/http"
	"github.com/handiism/lyrics-harvester/internal/metrics"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/ratelimit"
	"github.com/handiism/lyrics-harvester/internal/retry"
)

// DefaultBaseURL is the site root. Paths returned by the parsers are
// relative to it.
const DefaultBaseURL = "https://www.letras.com"

const (
	rankingPath = "/mais-acessadas/"
	topSongs    = "mais-tocadas.html"
	service     = "letras"
)

// Scraper fetches and parses pages. Every request waits for a slot on the
// shared Limiter and transient failures are retried with the Policy.
type Scraper struct {
	baseURL string
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	policy  retry.Policy
	metrics *metrics.Metrics
}

// NewScraper creates a Scraper. A nil limiter disables spacing.
func NewScraper(baseURL string, client *httpclient.Client, limiter *ratelimit.Limiter, policy retry.Policy, m *metrics.Metrics) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = httpclient.NewClient()
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}
	if policy.Retryable == nil {
		policy.Retryable = model.IsTransient
	}
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		limiter: limiter,
		policy:  policy,
		metrics: m,
	}
}

// GenreArtists returns the artist paths ranked on a genre page.
func (s *Scraper) GenreArtists(ctx context.Context, genre string) ([]string, error) {
	doc, err := s.document(ctx, s.baseURL+rankingPath+strings.Trim(genre, "/ ")+"/")
	if err != nil {
		return nil, err
	}
	return ParseArtists(doc)
}

// ArtistSongs returns the song paths on an artist's most played page.
func (s *Scraper) ArtistSongs(ctx context.Context, artistPath string) ([]string, error) {
	doc, err := s.document(ctx, s.baseURL+normalizeArtistPath(artistPath)+topSongs)
	if err != nil {
		return nil, err
	}
	return ParseSongs(doc, artistPath)
}

// Lyrics returns the lyrics on a song page.
func (s *Scraper) Lyrics(ctx context.Context, songPath string) (model.Lyrics, error) {
	doc, err := s.document(ctx, s.baseURL+songPath)
	if err != nil {
		return model.Lyrics{}, err
	}
	return ParseLyrics(doc)
}

func (s *Scraper) document(ctx context.Context, url string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		if _, err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		var err error
		doc, err = s.http.GetDocument(ctx, url)
		if err != nil {
			s.metrics.Request(service, model.KindOf(err).String())
			return err
		}
		s.metrics.Request(service, "ok")
		return nil
	})
	return doc, err
}

func normalizeArtistPath(p string) string {
	p = "/" + strings.Trim(p, "/")
	if p != "/" {
		p += "/"
	}
	return p
}
