// Package ingest scans monitored accounts for token addresses and buys
// each new one once.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rovshanmuradov/coinsniper/internal/extract"
	"github.com/rovshanmuradov/coinsniper/internal/feed"
	"github.com/rovshanmuradov/coinsniper/internal/metrics"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"go.uber.org/zap"
)

// Buyer submits a buy for a token found in a post by source.
type Buyer interface {
	Buy(ctx context.Context, tokenID, source string) error
}

// Config holds the controller's collaborators and settings.
type Config struct {
	Feed      feed.Reader
	Buyer     Buyer
	Seen      *position.SeenSet
	Handles   []string
	PostCount int
	Interval  time.Duration
	Logger    *zap.Logger
	Metrics   *metrics.Metrics // optional
}

// Controller runs ingestion cycles over every configured handle.
type Controller struct {
	feed      feed.Reader
	buyer     Buyer
	seen      *position.SeenSet
	handles   []string
	postCount int
	interval  time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New creates a controller.
func New(cfg Config) *Controller {
	return &Controller{
		feed:      cfg.Feed,
		buyer:     cfg.Buyer,
		seen:      cfg.Seen,
		handles:   cfg.Handles,
		postCount: cfg.PostCount,
		interval:  cfg.Interval,
		logger:    cfg.Logger.Named("ingest"),
		metrics:   cfg.Metrics,
	}
}

// Run performs a cycle, waits Interval, and repeats until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("🔎 Watching accounts",
		zap.Strings("handles", c.handles),
		zap.Duration("interval", c.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			c.RunCycle(ctx)
			timer.Reset(c.interval)
		}
	}
}

// RunCycle scans every handle once and returns the number of buys
// submitted. A failing handle is logged and skipped.
func (c *Controller) RunCycle(ctx context.Context) int {
	bought := 0
	for _, handle := range c.handles {
		if ctx.Err() != nil {
			return bought
		}
		bought += c.scanHandle(ctx, handle)
	}
	c.metrics.IngestCycle()
	return bought
}

func (c *Controller) scanHandle(ctx context.Context, handle string) int {
	log := c.logger.With(zap.String("handle", handle))

	userID, err := c.feed.ResolveUser(ctx, handle)
	if err != nil {
		log.Warn("Could not resolve handle, skipping", zap.Error(err))
		c.metrics.FeedError()
		return 0
	}

	posts, err := c.feed.LatestPosts(ctx, handle, userID, c.postCount)
	if err != nil {
		log.Warn("Could not fetch posts, skipping", zap.Error(err))
		c.metrics.FeedError()
		return 0
	}

	candidates := extract.All(posts...)
	c.metrics.Candidates(len(candidates))
	if len(candidates) == 0 {
		log.Debug("No valid addresses found", zap.Int("posts", len(posts)))
		return 0
	}

	bought := 0
	for _, tokenID := range candidates {
		if !c.seen.MarkIfNew(tokenID) {
			log.Debug("Already seen", zap.String("token", tokenID))
			continue
		}

		log.Info("🆕 New token spotted", zap.String("token", tokenID))
		if err := c.buyer.Buy(ctx, tokenID, handle); err != nil {
			if errors.Is(err, position.ErrAlreadyTracked) {
				log.Debug("Already holding position", zap.String("token", tokenID))
				continue
			}
			log.Error("Buy failed", zap.String("token", tokenID), zap.Error(err))
			continue
		}
		bought++
	}
	return bought
}
