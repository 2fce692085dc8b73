package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/ports"
)

// Publisher creates or updates each page on the CMS. Pages are isolated
// from each other: one failure is recorded in that page's result only.
// Nothing is retried.
type Publisher struct {
	cms         ports.CMS
	logger      *zap.Logger
	concurrency int
}

// NewPublisher creates a new Publisher. A concurrency of 1 or less publishes
// strictly one page at a time.
func NewPublisher(cms ports.CMS, logger *zap.Logger, concurrency int) *Publisher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Publisher{cms: cms, logger: logger, concurrency: concurrency}
}

// Publish returns one result per page, index-aligned with pages.
func (p *Publisher) Publish(ctx context.Context, pages []domain.PageRecord) []domain.PageResult {
	return p.PublishEach(ctx, pages, nil)
}

// PublishEach is Publish with a callback invoked as soon as each page's
// result is known, so callers can persist remote ids before the batch ends.
// Calls to onResult are serialized.
func (p *Publisher) PublishEach(ctx context.Context, pages []domain.PageRecord, onResult func(i int, r domain.PageResult)) []domain.PageResult {
	results := make([]domain.PageResult, len(pages))

	var mu sync.Mutex
	record := func(i int, r domain.PageResult) {
		results[i] = r
		if onResult == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onResult(i, r)
	}

	if p.concurrency == 1 {
		for i := range pages {
			record(i, p.publishOne(ctx, pages[i]))
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range pages {
		g.Go(func() error {
			record(i, p.publishOne(ctx, pages[i]))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Publisher) publishOne(ctx context.Context, page domain.PageRecord) domain.PageResult {
	draft := ports.PageDraft{
		Title:   page.Title,
		Slug:    page.TargetSlug,
		Content: page.Content(),
	}

	var (
		remote *ports.RemotePage
		err    error
		op     string
	)
	if page.RemotePageID != nil && *page.RemotePageID != "" {
		op = "update"
		remote, err = p.cms.UpdatePage(ctx, *page.RemotePageID, draft)
	} else {
		op = "create"
		remote, err = p.cms.CreatePage(ctx, draft)
	}

	if err != nil {
		p.logger.Warn("Page publish failed",
			zap.String("source_key", page.SourceKey),
			zap.String("op", op),
			zap.Error(err))
		return domain.PageResult{SourceKey: page.SourceKey, OK: false, Error: err.Error()}
	}

	res := domain.PageResult{SourceKey: page.SourceKey, OK: true}
	if remote != nil {
		res.RemotePageID = remote.ID
		res.Link = remote.Link
		res.Status = remote.Status
	}
	if res.RemotePageID == "" && page.RemotePageID != nil {
		res.RemotePageID = *page.RemotePageID
	}
	p.logger.Debug("Page published",
		zap.String("source_key", page.SourceKey),
		zap.String("op", op),
		zap.String("remote_page_id", res.RemotePageID))
	return res
}
