package spotify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/lyrics-harvester/internal/metrics"
	"github.com/handiism/lyrics-harvester/internal/model"
)

// TokenPool shares access tokens between concurrent lookups.
//
// Checkout and check-in go through a buffered channel and never take a
// lock. When the queue holds no valid token, Get falls back to a
// mutex-guarded refill: the first caller fetches a token, and callers that
// were waiting on the mutex reuse it instead of fetching their own.
//
// A refill rejected with model.ErrAuthFailure is remembered for
// AuthFailureBackoff; until then callers get the same error without a new
// request.
type TokenPool struct {
	source  TokenSource
	queue   chan Token
	now     func() time.Time
	metrics *metrics.Metrics
	backoff time.Duration

	mu        sync.Mutex
	latest    Token
	failure   error
	failUntil time.Time
	revoked   sync.Map // access token -> struct{}

	refreshes atomic.Int64
}

// AuthFailureBackoff is how long a rejected refill is reused.
const AuthFailureBackoff = 30 * time.Second

// NewTokenPool returns a pool holding at most size idle tokens.
func NewTokenPool(source TokenSource, size int, m *metrics.Metrics) *TokenPool {
	return &TokenPool{
		source:  source,
		queue:   make(chan Token, max(size, 1)),
		now:     time.Now,
		metrics: m,
		backoff: AuthFailureBackoff,
	}
}

// Get returns a valid token. Expired and invalidated tokens found in the
// queue are dropped.
func (p *TokenPool) Get(ctx context.Context) (Token, error) {
	for {
		select {
		case tok := <-p.queue:
			if p.usable(tok) {
				return tok, nil
			}
		default:
			return p.refill(ctx)
		}
	}
}

// Put returns a token to the pool. Invalid tokens and tokens that do not fit
// are dropped.
func (p *TokenPool) Put(tok Token) {
	if !p.usable(tok) {
		return
	}
	select {
	case p.queue <- tok:
	default:
	}
}

// Invalidate marks tok as rejected by the server so it is never handed out
// again.
func (p *TokenPool) Invalidate(tok Token) {
	p.revoked.Store(tok.AccessToken, struct{}{})

	p.mu.Lock()
	if p.latest.AccessToken == tok.AccessToken {
		p.latest = Token{}
	}
	p.mu.Unlock()
}

// Warm fetches up to n tokens ahead of use.
func (p *TokenPool) Warm(ctx context.Context, n int) error {
	n = min(n, cap(p.queue))
	for i := 0; i < n; i++ {
		tok, err := p.fetch(ctx)
		if err != nil {
			return err
		}
		p.Put(tok)
	}
	return nil
}

// Refreshes returns the number of tokens fetched from the source.
func (p *TokenPool) Refreshes() int64 {
	return p.refreshes.Load()
}

// Idle returns the number of tokens waiting in the queue.
func (p *TokenPool) Idle() int {
	return len(p.queue)
}

func (p *TokenPool) usable(tok Token) bool {
	if !tok.Valid(p.now()) {
		return false
	}
	_, revoked := p.revoked.Load(tok.AccessToken)
	return !revoked
}

func (p *TokenPool) refill(ctx context.Context) (Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.usable(p.latest) {
		return p.latest, nil
	}
	if p.failure != nil && p.now().Before(p.failUntil) {
		return Token{}, p.failure
	}
	return p.fetchLocked(ctx)
}

func (p *TokenPool) fetch(ctx context.Context) (Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchLocked(ctx)
}

func (p *TokenPool) fetchLocked(ctx context.Context) (Token, error) {
	tok, err := p.source.Token(ctx)
	if err != nil {
		if errors.Is(err, model.ErrAuthFailure) {
			p.failure, p.failUntil = err, p.now().Add(p.backoff)
		}
		return Token{}, err
	}
	p.failure = nil
	p.refreshes.Add(1)
	p.metrics.TokenRefresh()
	p.latest = tok
	return tok, nil
}
