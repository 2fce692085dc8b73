package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/pages"
	"sitepub/internal/core/ports"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrInvalidDecision  = errors.New("invalid approval decision")
	ErrSlugCollision    = errors.New("target slug collision")
	ErrNotApproved      = errors.New("not every page is approved")
	ErrNothingToPublish = errors.New("no pages eligible for publishing")
	ErrEmptyJob         = errors.New("renderer output contains no pages")
)

// PublishOptions controls which pages a publish run picks up.
type PublishOptions struct {
	// Force publishes even when target slugs collide.
	Force bool
	// FailedOnly re-publishes only pages whose last attempt failed.
	FailedOnly bool
}

// PublishReport summarizes one publish run.
type PublishReport struct {
	ArtifactID string              `json:"artifact_id" yaml:"artifact_id"`
	JobStatus  domain.JobStatus    `json:"job_status" yaml:"job_status"`
	Results    []domain.PageResult `json:"results" yaml:"results"`
}

// Orchestrator coordinates the website-update workflow: ingest, review,
// remote lookup and publish.
type Orchestrator struct {
	store     ports.ArtifactStore
	resolver  *Resolver
	publisher *Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	cms ports.CMS,
	store ports.ArtifactStore,
	logger *zap.Logger,
	concurrency int,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		resolver:  NewResolver(cms, logger),
		publisher: NewPublisher(cms, logger, concurrency),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest turns raw renderer output into a new draft artifact.
func (o *Orchestrator) Ingest(ctx context.Context, raw string, opts pages.JobOptions) (*domain.Artifact, error) {
	meta := pages.NewJob(raw, opts)
	if len(meta.Pages) == 0 {
		return nil, ErrEmptyJob
	}

	now := o.now()
	a := &domain.Artifact{
		ID:        uuid.New().String(),
		Kind:      domain.ArtifactKindWebsiteUpdate,
		Status:    domain.ArtifactDraft,
		RawInput:  raw,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}

	log := o.jobLogger(a.ID)
	log.Info("Ingesting renderer output",
		zap.String("source_kind", string(meta.SourceKind)),
		zap.Int("pages", len(meta.Pages)),
		zap.Bool("embedded", meta.EmbeddedDetected))
	for _, w := range meta.SlugWarnings {
		log.Warn("Slug collision", zap.String("warning", w))
	}

	if err := o.store.CreateArtifact(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}
	log.Info("Artifact created")
	return a, nil
}

// Get loads an artifact by id.
func (o *Orchestrator) Get(ctx context.Context, id string) (*domain.Artifact, error) {
	return o.store.LoadArtifact(ctx, id)
}

// List returns all artifacts, newest first.
func (o *Orchestrator) List(ctx context.Context) ([]domain.Artifact, error) {
	return o.store.ListArtifacts(ctx)
}

// Approve records a reviewer decision for one page and recomputes the job
// status. Once publishing has begun the job status no longer moves.
func (o *Orchestrator) Approve(ctx context.Context, id, sourceKey, decision, notes string) (*domain.Artifact, error) {
	status, ok := domain.ParseDecision(decision)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	a, err := o.store.LoadArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := &a.Metadata
	idx := meta.PageIndex(sourceKey)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, sourceKey)
	}

	meta.Pages[idx].ApprovalStatus = status
	meta.Pages[idx].ApprovalNotes = notes
	meta.JobStatus = domain.ComputePrePublish(meta.Pages, meta.JobStatus)
	if !meta.JobStatus.IsPublishPhase() {
		if meta.JobStatus == domain.JobApproved {
			a.Status = domain.ArtifactApproved
		} else {
			a.Status = domain.ArtifactReview
		}
	}

	if err := o.save(ctx, a); err != nil {
		return nil, err
	}
	o.jobLogger(id).Info("Page reviewed",
		zap.String("source_key", sourceKey),
		zap.String("decision", string(status)),
		zap.String("job_status", string(meta.JobStatus)))
	return a, nil
}

// SetTargetSlug changes where a page will be published. The slug is
// normalized and collisions are re-checked. A page that was never published
// loses its remote lookup cache, since it was keyed by the old slug.
func (o *Orchestrator) SetTargetSlug(ctx context.Context, id, sourceKey, slug string) (*domain.Artifact, error) {
	a, err := o.store.LoadArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := &a.Metadata
	idx := meta.PageIndex(sourceKey)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, sourceKey)
	}

	page := &meta.Pages[idx]
	page.TargetSlug = pages.Slugify(slug)
	if page.PublishStatus == nil {
		page.RemotePageID = nil
		page.RemoteExists = nil
	}
	meta.SlugWarnings = pages.ValidateSlugs(meta.Pages)

	if err := o.save(ctx, a); err != nil {
		return nil, err
	}
	o.jobLogger(id).Info("Target slug changed",
		zap.String("source_key", sourceKey),
		zap.String("slug", page.TargetSlug))
	return a, nil
}

// Resolve looks up every page's target slug on the CMS and caches the
// answers on the artifact.
func (o *Orchestrator) Resolve(ctx context.Context, id string) ([]Resolution, error) {
	a, err := o.store.LoadArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	log := o.jobLogger(id)
	log.Info("Resolving remote pages", zap.Int("pages", len(a.Metadata.Pages)))

	resolutions := o.resolver.Resolve(ctx, LookupsFor(a.Metadata.Pages))
	ApplyResolutions(a.Metadata.Pages, resolutions)

	if err := o.save(ctx, a); err != nil {
		return resolutions, err
	}
	return resolutions, nil
}

// Publish pushes the eligible pages of a job to the CMS and records the
// outcome. Each page result is persisted as soon as it arrives, so a later
// FailedOnly run updates pages that were created instead of duplicating them.
func (o *Orchestrator) Publish(ctx context.Context, id string, opts PublishOptions) (*PublishReport, error) {
	a, err := o.store.LoadArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := &a.Metadata
	log := o.jobLogger(id)

	meta.SlugWarnings = pages.ValidateSlugs(meta.Pages)
	if len(meta.SlugWarnings) > 0 {
		if !opts.Force {
			return nil, fmt.Errorf("%w: %s", ErrSlugCollision, strings.Join(meta.SlugWarnings, "; "))
		}
		log.Warn("Publishing despite slug collisions", zap.Strings("warnings", meta.SlugWarnings))
	}
	if meta.RequireAllApproved && !allApproved(meta.Pages) {
		return nil, fmt.Errorf("%w: job status is %s", ErrNotApproved, meta.JobStatus)
	}

	selected := eligible(meta.Pages, opts.FailedOnly)
	if len(selected) == 0 {
		return nil, ErrNothingToPublish
	}

	meta.JobStatus = domain.JobPublishing
	a.Status = domain.ArtifactPublishing
	if err := o.save(ctx, a); err != nil {
		return nil, err
	}
	log.Info("Publishing pages", zap.Int("count", len(selected)), zap.Bool("failed_only", opts.FailedOnly))

	batch := make([]domain.PageRecord, len(selected))
	for k, idx := range selected {
		batch[k] = meta.Pages[idx]
	}

	// Results already accepted by the CMS must be recorded even if ctx is
	// cancelled mid-batch.
	saveCtx := context.WithoutCancel(ctx)
	var saveErr error
	results := o.publisher.PublishEach(ctx, batch, func(k int, r domain.PageResult) {
		applyResult(&meta.Pages[selected[k]], r)
		if err := o.save(saveCtx, a); err != nil {
			saveErr = errors.Join(saveErr, err)
		}
	})

	meta.JobStatus = domain.ComputePostPublish(latestResults(meta.Pages))
	a.Status = domain.ArtifactStatusFor(meta.JobStatus)
	if err := o.save(saveCtx, a); err != nil {
		saveErr = errors.Join(saveErr, err)
	}

	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	log.Info("Publish finished",
		zap.Int("ok", ok),
		zap.Int("failed", len(results)-ok),
		zap.String("job_status", string(meta.JobStatus)))

	report := &PublishReport{ArtifactID: id, JobStatus: meta.JobStatus, Results: results}
	if saveErr != nil {
		return report, saveErr
	}
	return report, nil
}

func (o *Orchestrator) save(ctx context.Context, a *domain.Artifact) error {
	a.UpdatedAt = o.now()
	if err := o.store.SaveArtifact(ctx, a); err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", a.ID, err)
	}
	return nil
}

func (o *Orchestrator) jobLogger(id string) *zap.Logger {
	return o.logger.With(zap.String("job_id", id))
}

func allApproved(records []domain.PageRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, p := range records {
		if p.ApprovalStatus != domain.ApprovalApproved {
			return false
		}
	}
	return true
}

// eligible returns the indices of approved pages, optionally only those
// whose last publish attempt failed.
func eligible(records []domain.PageRecord, failedOnly bool) []int {
	var out []int
	for i, p := range records {
		if p.ApprovalStatus != domain.ApprovalApproved {
			continue
		}
		if failedOnly && (p.PublishStatus == nil || *p.PublishStatus != domain.PublishStatusFailed) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func applyResult(p *domain.PageRecord, r domain.PageResult) {
	res := r
	p.PublishResult = &res

	status := domain.PublishStatusFailed
	if r.OK {
		status = domain.PublishStatusPublished
		if r.RemotePageID != "" {
			id := r.RemotePageID
			exists := true
			p.RemotePageID = &id
			p.RemoteExists = &exists
		}
	}
	p.PublishStatus = &status
}

// latestResults collects the last result of every page that was ever
// attempted.
func latestResults(records []domain.PageRecord) []domain.PageResult {
	var out []domain.PageResult
	for _, p := range records {
		if p.PublishResult != nil {
			out = append(out, *p.PublishResult)
		}
	}
	return out
}
