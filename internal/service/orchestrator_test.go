package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/pages"
	"sitepub/internal/core/ports"
)

const twoPages = `{"pages":[
	{"slug":"about","title":"About","body_html":"<p>about</p>"},
	{"slug":"contact","title":"Contact","body_markdown":"mail us"}
]}`

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeCMS, *memStore) {
	t.Helper()
	cms := newFakeCMS()
	store := newMemStore()
	return NewOrchestrator(cms, store, zap.NewNop(), 1), cms, store
}

func approveAll(t *testing.T, o *Orchestrator, id string, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, err := o.Approve(t.Context(), id, k, "approved", "")
		require.NoError(t, err)
	}
}

func TestOrchestrator_Ingest(t *testing.T) {
	o, _, store := newTestOrchestrator(t)

	a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{Brand: "acme", SiteKey: "main"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.ArtifactKindWebsiteUpdate, a.Kind)
	assert.Equal(t, domain.ArtifactDraft, a.Status)
	assert.Equal(t, domain.JobDraft, a.Metadata.JobStatus)
	assert.Equal(t, "acme", a.Metadata.Brand)
	assert.Equal(t, domain.SourceDirect, a.Metadata.SourceKind)
	require.Len(t, a.Metadata.Pages, 2)

	stored, err := store.LoadArtifact(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, twoPages, stored.RawInput)
	assert.Equal(t, "about", stored.Metadata.Pages[0].SourceKey)

	_, err = o.Ingest(t.Context(), "  \n", pages.JobOptions{})
	assert.ErrorIs(t, err, ErrEmptyJob)
}

func TestOrchestrator_Approve(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
	require.NoError(t, err)

	a, err = o.Approve(t.Context(), a.ID, "about", "approved", "")
	require.NoError(t, err)
	assert.Equal(t, domain.JobInReview, a.Metadata.JobStatus)
	assert.Equal(t, domain.ArtifactReview, a.Status)

	a, err = o.Approve(t.Context(), a.ID, "contact", "needs_changes", "fix the phone number")
	require.NoError(t, err)
	assert.Equal(t, domain.JobInReview, a.Metadata.JobStatus)
	assert.Equal(t, "fix the phone number", a.Metadata.Pages[1].ApprovalNotes)

	a, err = o.Approve(t.Context(), a.ID, "contact", "approved", "")
	require.NoError(t, err)
	assert.Equal(t, domain.JobApproved, a.Metadata.JobStatus)
	assert.Equal(t, domain.ArtifactApproved, a.Status)

	_, err = o.Approve(t.Context(), a.ID, "missing", "approved", "")
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = o.Approve(t.Context(), a.ID, "about", "pending", "")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = o.Approve(t.Context(), "no-such-id", "about", "approved", "")
	assert.ErrorIs(t, err, ports.ErrArtifactNotFound)
}

func TestOrchestrator_PublishPartialFailureThenRetry(t *testing.T) {
	o, cms, store := newTestOrchestrator(t)
	a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{RequireAllApproved: true})
	require.NoError(t, err)
	approveAll(t, o, a.ID, "about", "contact")

	cms.failOn["contact"] = errors.New("rest_cannot_create: forbidden")
	var statusDuringCalls []domain.JobStatus
	cms.beforeWrite = func() {
		statusDuringCalls = append(statusDuringCalls, store.current(a.ID))
	}

	report, err := o.Publish(t.Context(), a.ID, PublishOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobPartialFailed, report.JobStatus)
	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].OK)
	assert.False(t, report.Results[1].OK)
	assert.Equal(t, []domain.JobStatus{domain.JobPublishing, domain.JobPublishing}, statusDuringCalls)

	stored, err := store.LoadArtifact(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPartialFailed, stored.Metadata.JobStatus)
	assert.Equal(t, domain.ArtifactPublishFailed, stored.Status)
	about, contact := stored.Metadata.Pages[0], stored.Metadata.Pages[1]
	require.NotNil(t, about.RemotePageID)
	assert.Equal(t, "101", *about.RemotePageID)
	assert.Equal(t, domain.PublishStatusPublished, *about.PublishStatus)
	assert.Equal(t, domain.PublishStatusFailed, *contact.PublishStatus)
	assert.Contains(t, contact.PublishResult.Error, "forbidden")

	// Approval edits no longer move the job.
	_, err = o.Approve(t.Context(), a.ID, "about", "rejected", "")
	require.NoError(t, err)
	assert.Equal(t, domain.JobPartialFailed, store.current(a.ID))
	_, err = o.Approve(t.Context(), a.ID, "about", "approved", "")
	require.NoError(t, err)

	delete(cms.failOn, "contact")
	report, err = o.Publish(t.Context(), a.ID, PublishOptions{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "contact", report.Results[0].SourceKey)
	assert.Equal(t, domain.JobPublished, report.JobStatus)

	// A full republish updates both pages instead of creating duplicates.
	report, err = o.Publish(t.Context(), a.ID, PublishOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobPublished, report.JobStatus)
	assert.Equal(t, []string{
		"create:about", "create:contact",
		"create:contact",
		"update:101", "update:102",
	}, cms.Calls())
}

func TestOrchestrator_PublishGates(t *testing.T) {
	t.Run("require all approved", func(t *testing.T) {
		o, cms, _ := newTestOrchestrator(t)
		a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{RequireAllApproved: true})
		require.NoError(t, err)
		approveAll(t, o, a.ID, "about")

		_, err = o.Publish(t.Context(), a.ID, PublishOptions{})
		assert.ErrorIs(t, err, ErrNotApproved)
		assert.Empty(t, cms.Calls())
	})

	t.Run("only approved pages without the policy", func(t *testing.T) {
		o, cms, _ := newTestOrchestrator(t)
		a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
		require.NoError(t, err)
		approveAll(t, o, a.ID, "contact")

		report, err := o.Publish(t.Context(), a.ID, PublishOptions{})
		require.NoError(t, err)
		require.Len(t, report.Results, 1)
		assert.Equal(t, "contact", report.Results[0].SourceKey)
		assert.Equal(t, []string{"create:contact"}, cms.Calls())
	})

	t.Run("nothing approved", func(t *testing.T) {
		o, _, _ := newTestOrchestrator(t)
		a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
		require.NoError(t, err)

		_, err = o.Publish(t.Context(), a.ID, PublishOptions{})
		assert.ErrorIs(t, err, ErrNothingToPublish)
	})

	t.Run("slug collision unless forced", func(t *testing.T) {
		o, cms, _ := newTestOrchestrator(t)
		a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
		require.NoError(t, err)
		approveAll(t, o, a.ID, "about", "contact")

		a, err = o.SetTargetSlug(t.Context(), a.ID, "contact", "About")
		require.NoError(t, err)
		assert.Equal(t, "about", a.Metadata.Pages[1].TargetSlug)
		require.Len(t, a.Metadata.SlugWarnings, 1)

		_, err = o.Publish(t.Context(), a.ID, PublishOptions{})
		assert.ErrorIs(t, err, ErrSlugCollision)
		assert.Empty(t, cms.Calls())

		report, err := o.Publish(t.Context(), a.ID, PublishOptions{Force: true})
		require.NoError(t, err)
		assert.Len(t, report.Results, 2)
	})
}

func TestOrchestrator_Resolve(t *testing.T) {
	o, cms, store := newTestOrchestrator(t)
	cms.pages["about"] = &ports.RemotePage{ID: "55", Slug: "about"}

	a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
	require.NoError(t, err)

	res, err := o.Resolve(t.Context(), a.ID)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].Exists)
	assert.False(t, res[1].Exists)

	stored, err := store.LoadArtifact(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "55", *stored.Metadata.Pages[0].RemotePageID)
	assert.True(t, *stored.Metadata.Pages[0].RemoteExists)
	assert.Nil(t, stored.Metadata.Pages[1].RemotePageID)
	assert.False(t, *stored.Metadata.Pages[1].RemoteExists)

	// Resolved pages are updated rather than created.
	approveAll(t, o, a.ID, "about")
	_, err = o.Publish(t.Context(), a.ID, PublishOptions{})
	require.NoError(t, err)
	assert.Contains(t, cms.Calls(), "update:55")

	// Renaming a never-published page drops its stale cache.
	a, err = o.SetTargetSlug(t.Context(), a.ID, "contact", "get-in-touch")
	require.NoError(t, err)
	assert.Nil(t, a.Metadata.Pages[1].RemoteExists)
	_, err = o.SetTargetSlug(t.Context(), a.ID, "nope", "x")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestOrchestrator_List(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	first, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
	require.NoError(t, err)
	second, err := o.Ingest(t.Context(), "<h1>Solo</h1><p>x</p>", pages.JobOptions{})
	require.NoError(t, err)

	list, err := o.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestOrchestrator_FailedLookupKeepsPublishedID(t *testing.T) {
	o, cms, store := newTestOrchestrator(t)
	a, err := o.Ingest(t.Context(), twoPages, pages.JobOptions{})
	require.NoError(t, err)
	approveAll(t, o, a.ID, "about", "contact")

	cms.failOn["contact"] = errors.New("rest_cannot_create: forbidden")
	_, err = o.Publish(t.Context(), a.ID, PublishOptions{})
	require.NoError(t, err)

	cms.findErr["about"] = errors.New("context deadline exceeded")
	res, err := o.Resolve(t.Context(), a.ID)
	require.NoError(t, err)
	assert.True(t, res[0].LookupFailed)

	stored, err := store.LoadArtifact(t.Context(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Metadata.Pages[0].RemotePageID)
	assert.Equal(t, "101", *stored.Metadata.Pages[0].RemotePageID)

	delete(cms.failOn, "contact")
	_, err = o.Publish(t.Context(), a.ID, PublishOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"create:about", "create:contact",
		"find:about", "find:contact",
		"update:101", "create:contact",
	}, cms.Calls())
}
