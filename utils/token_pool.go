package utils

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoTokens is returned when every token is cooling down
var ErrNoTokens = errors.New("no available API tokens")

// TokenPool manages upstream bearer tokens with rotation and cooldown
type TokenPool struct {
	tokens      []string
	usageCounts map[string]int
	cooldown    map[string]time.Time
	mu          sync.Mutex
}

// NewTokenPool creates a new token pool
func NewTokenPool(tokens []string) *TokenPool {
	if len(tokens) == 0 {
		return nil
	}

	return &TokenPool{
		tokens:      tokens,
		usageCounts: make(map[string]int),
		cooldown:    make(map[string]time.Time),
	}
}

// Acquire returns an available token.
// Prefers less-used tokens and skips tokens that are cooling down.
func (p *TokenPool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := p.availableLocked(time.Now())
	if len(available) == 0 {
		return "", ErrNoTokens
	}

	minUsage := -1
	for _, token := range available {
		count := p.usageCounts[token]
		if minUsage == -1 || count < minUsage {
			minUsage = count
		}
	}

	candidates := make([]string, 0, len(available))
	for _, token := range available {
		if p.usageCounts[token] == minUsage {
			candidates = append(candidates, token)
		}
	}

	selected := candidates[rand.Intn(len(candidates))]
	p.usageCounts[selected]++
	return selected, nil
}

// MarkFailed puts a token on cooldown, e.g. after a 401 or 429
func (p *TokenPool) MarkFailed(token string, retryAfter time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldown[token] = time.Now().Add(retryAfter)
}

// availableLocked returns tokens that are not cooling down.
// Must be called with lock held.
func (p *TokenPool) availableLocked(now time.Time) []string {
	available := make([]string, 0, len(p.tokens))
	for _, token := range p.tokens {
		if until, ok := p.cooldown[token]; ok {
			if now.Before(until) {
				continue
			}
			delete(p.cooldown, token)
		}
		available = append(available, token)
	}
	return available
}

// PoolStats summarizes pool usage
type PoolStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Cooling   int `json:"cooling"`
}

// Stats returns usage statistics
func (p *TokenPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := len(p.availableLocked(time.Now()))
	return PoolStats{
		Total:     len(p.tokens),
		Available: available,
		Cooling:   len(p.tokens) - available,
	}
}

// StaticSource wraps one acquired token for an oauth2 transport
func StaticSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}
