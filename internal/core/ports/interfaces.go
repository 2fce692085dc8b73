package ports

import (
	"context"
	"errors"
	"io"

	"sitepub/internal/core/domain"
)

// ErrArtifactNotFound is returned by an ArtifactStore when no record matches.
var ErrArtifactNotFound = errors.New("artifact not found")

// RemotePage is a page as the CMS reports it.
type RemotePage struct {
	ID     string
	Slug   string
	Link   string
	Status string // e.g. "draft", "publish", "private"
}

// PageDraft carries the fields sent on create or update.
type PageDraft struct {
	Title   string
	Slug    string
	Content string
}

// CMS defines the contract for the remote content-management system.
type CMS interface {
	// FindPageBySlug looks up a page in any state, including drafts and
	// private pages. Returns nil, nil when no page has the slug.
	FindPageBySlug(ctx context.Context, slug string) (*RemotePage, error)

	// CreatePage creates a new page in draft state.
	CreatePage(ctx context.Context, draft PageDraft) (*RemotePage, error)

	// UpdatePage replaces the title and content of an existing page.
	// draft.Slug is ignored.
	UpdatePage(ctx context.Context, id string, draft PageDraft) (*RemotePage, error)
}

// ArtifactStore defines the contract for persisting artifacts and their
// job metadata blob.
type ArtifactStore interface {
	// CreateArtifact stores a new artifact together with its raw input.
	CreateArtifact(ctx context.Context, a *domain.Artifact) error

	// LoadArtifact returns ErrArtifactNotFound for unknown ids.
	LoadArtifact(ctx context.Context, id string) (*domain.Artifact, error)

	// SaveArtifact overwrites the status and metadata of an existing artifact.
	SaveArtifact(ctx context.Context, a *domain.Artifact) error

	// ListArtifacts returns all artifacts, newest first.
	ListArtifacts(ctx context.Context) ([]domain.Artifact, error)
}

// Source fetches raw renderer output from some location.
type Source interface {
	// Open returns a ReadCloser that the caller must close.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}
