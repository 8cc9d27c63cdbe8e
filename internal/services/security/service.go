package security

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"TokenWatch/internal/domain/models"
	"TokenWatch/pkg/cache"
	whttp "TokenWatch/pkg/http"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/retry"
)

const defaultVerdictTTL = 5 * time.Minute

// Service queries the token-safety providers. Provider failures degrade to
// "unknown" verdicts rather than errors so a flaky provider never stalls a
// pipeline run. Successful verdicts are cached by mint so repeated gate
// runs on the same token skip the provider round-trip.
type Service struct {
	http       *whttp.Client
	rugURL     string
	snifferURL string
	policy     retry.Policy
	log        *logger.Logger
	cache      cache.Service
	cacheTTL   time.Duration
}

type Option func(*Service)

// WithCache enables verdict caching.
func WithCache(c cache.Service) Option {
	return func(s *Service) { s.cache = c }
}

// WithVerdictTTL overrides how long cached verdicts live.
func WithVerdictTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func New(rugURL, snifferURL string, timeout time.Duration, log *logger.Logger, opts ...Option) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Service{
		http:       whttp.NewClient(whttp.WithTimeout(timeout)),
		rugURL:     strings.TrimRight(rugURL, "/"),
		snifferURL: strings.TrimRight(snifferURL, "/"),
		policy:     retry.Policy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, Multiplier: 2},
		log:        log,
		cacheTTL:   defaultVerdictTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckRug returns the rug-risk verdict for a mint address.
func (s *Service) CheckRug(ctx context.Context, mint string) models.RugVerdict {
	unknown := models.RugVerdict{Risk: "unknown"}
	if s.rugURL == "" {
		return unknown
	}

	cacheKey := cache.GenerateKey("rug", mint)
	if s.cache != nil {
		var cached models.RugVerdict
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached
		}
	}

	var out struct {
		Risk  string   `json:"risk"`
		Score *float64 `json:"score"`
		Flags []string `json:"flags"`
	}
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.http.SendAndParse(ctx, &whttp.RequestOptions{
			Method: whttp.MethodGet,
			URL:    fmt.Sprintf("%s/v1/tokens/%s/report", s.rugURL, mint),
		}, &out)
	})
	if err != nil {
		s.log.Warn("rugcheck lookup failed", logger.String("mint", mint), logger.Error(err))
		return unknown
	}
	if out.Risk == "" {
		out.Risk = "unknown"
	}
	verdict := models.RugVerdict{Risk: out.Risk, Score: out.Score, Flags: out.Flags}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, verdict, s.cacheTTL)
	}
	return verdict
}

// CheckTrust returns the contract trust score for a mint address.
func (s *Service) CheckTrust(ctx context.Context, mint string) models.TrustVerdict {
	unknown := models.TrustVerdict{Status: "unknown"}
	if s.snifferURL == "" {
		return unknown
	}

	cacheKey := cache.GenerateKey("trust", mint)
	if s.cache != nil {
		var cached models.TrustVerdict
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached
		}
	}

	var out struct {
		Status string   `json:"status"`
		Score  *float64 `json:"score"`
	}
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.http.SendAndParse(ctx, &whttp.RequestOptions{
			Method: whttp.MethodGet,
			URL:    fmt.Sprintf("%s/api/tokens/%s/score", s.snifferURL, mint),
		}, &out)
	})
	if err != nil {
		s.log.Warn("sniffer lookup failed", logger.String("mint", mint), logger.Error(err))
		return unknown
	}
	if out.Status == "" {
		out.Status = "ok"
	}
	verdict := models.TrustVerdict{Status: out.Status, Score: out.Score}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, verdict, s.cacheTTL)
	}
	return verdict
}

// Check queries both providers concurrently.
func (s *Service) Check(ctx context.Context, mint string) (models.RugVerdict, models.TrustVerdict) {
	var (
		wg    sync.WaitGroup
		rug   models.RugVerdict
		trust models.TrustVerdict
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rug = s.CheckRug(ctx, mint)
	}()
	go func() {
		defer wg.Done()
		trust = s.CheckTrust(ctx, mint)
	}()
	wg.Wait()
	return rug, trust
}
