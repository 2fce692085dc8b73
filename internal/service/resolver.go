package service

import (
	"context"

	"go.uber.org/zap"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/ports"
)

// SlugLookup asks whether the CMS already has a page at TargetSlug.
type SlugLookup struct {
	SourceKey  string `json:"source_key" yaml:"source_key"`
	TargetSlug string `json:"target_slug" yaml:"target_slug"`
}

// Resolution is the answer to one SlugLookup. A failed lookup is reported
// as not found.
type Resolution struct {
	SourceKey    string  `json:"source_key" yaml:"source_key"`
	TargetSlug   string  `json:"target_slug" yaml:"target_slug"`
	Exists       bool    `json:"exists" yaml:"exists"`
	RemotePageID *string `json:"remote_page_id" yaml:"remote_page_id"`
	Link         string  `json:"link,omitempty" yaml:"link,omitempty"`
	// LookupFailed marks a not-found answer that came from an error rather
	// than from the CMS.
	LookupFailed bool `json:"lookup_failed,omitempty" yaml:"lookup_failed,omitempty"`
}

// Resolver looks up existing remote pages by slug, one call per page.
type Resolver struct {
	cms    ports.CMS
	logger *zap.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(cms ports.CMS, logger *zap.Logger) *Resolver {
	return &Resolver{cms: cms, logger: logger}
}

// Resolve runs the lookups in order. The result is index-aligned with
// lookups; a failing lookup is logged and never stops the batch.
func (r *Resolver) Resolve(ctx context.Context, lookups []SlugLookup) []Resolution {
	out := make([]Resolution, len(lookups))
	for i, l := range lookups {
		res := Resolution{SourceKey: l.SourceKey, TargetSlug: l.TargetSlug}

		page, err := r.cms.FindPageBySlug(ctx, l.TargetSlug)
		switch {
		case err != nil:
			res.LookupFailed = true
			r.logger.Warn("Remote lookup failed, treating page as new",
				zap.String("source_key", l.SourceKey),
				zap.String("slug", l.TargetSlug),
				zap.Error(err))
		case page != nil:
			id := page.ID
			res.Exists = true
			res.RemotePageID = &id
			res.Link = page.Link
		}
		out[i] = res
	}
	return out
}

// LookupsFor builds one lookup per page, in page order.
func LookupsFor(records []domain.PageRecord) []SlugLookup {
	out := make([]SlugLookup, len(records))
	for i, p := range records {
		out[i] = SlugLookup{SourceKey: p.SourceKey, TargetSlug: p.TargetSlug}
	}
	return out
}

// ApplyResolutions copies index-aligned resolutions into the remote cache
// fields of records. Failed lookups leave the cache untouched, so a remote
// id recorded by an earlier publish survives.
func ApplyResolutions(records []domain.PageRecord, resolutions []Resolution) {
	for i := range records {
		if i >= len(resolutions) {
			return
		}
		if resolutions[i].LookupFailed {
			continue
		}
		exists := resolutions[i].Exists
		records[i].RemoteExists = &exists
		records[i].RemotePageID = resolutions[i].RemotePageID
	}
}
