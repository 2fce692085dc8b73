package domain

import "time"

// ApprovalStatus is the human review state of a single page.
type ApprovalStatus string

const (
	ApprovalPending      ApprovalStatus = "pending"
	ApprovalApproved     ApprovalStatus = "approved"
	ApprovalRejected     ApprovalStatus = "rejected"
	ApprovalNeedsChanges ApprovalStatus = "needs_changes"
)

// ParseDecision validates a reviewer decision. Pending is not a decision.
func ParseDecision(s string) (ApprovalStatus, bool) {
	switch ApprovalStatus(s) {
	case ApprovalApproved, ApprovalRejected, ApprovalNeedsChanges:
		return ApprovalStatus(s), true
	}
	return "", false
}

// PublishStatus records the outcome of the last publish attempt for a page.
type PublishStatus string

const (
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// SourceKind tags which input shape the pages were extracted from.
type SourceKind string

const (
	SourceWrapped   SourceKind = "wrapped"
	SourceDirect    SourceKind = "direct"
	SourceRawString SourceKind = "raw_string"
)

// PageRecord represents one web page within a website-update job.
type PageRecord struct {
	SourceKey      string         `json:"source_key" yaml:"source_key"`
	Title          string         `json:"title" yaml:"title"`
	TargetSlug     string         `json:"target_slug" yaml:"target_slug"`
	BodyHTML       string         `json:"body_html,omitempty" yaml:"body_html,omitempty"`
	BodyMarkdown   string         `json:"body_markdown,omitempty" yaml:"body_markdown,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status" yaml:"approval_status"`
	ApprovalNotes  string         `json:"approval_notes,omitempty" yaml:"approval_notes,omitempty"`

	// Remote lookup cache; nil until resolved.
	RemotePageID *string `json:"remote_page_id" yaml:"remote_page_id"`
	RemoteExists *bool   `json:"remote_exists" yaml:"remote_exists"`

	// Filled only after a publish attempt.
	PublishStatus *PublishStatus `json:"publish_status" yaml:"publish_status"`
	PublishResult *PageResult    `json:"publish_result" yaml:"publish_result"`
}

// Content returns the body to send to the CMS. HTML wins over Markdown.
func (p PageRecord) Content() string {
	if p.BodyHTML != "" {
		return p.BodyHTML
	}
	return p.BodyMarkdown
}

// PageResult is the outcome of publishing one page.
type PageResult struct {
	SourceKey    string `json:"source_key" yaml:"source_key"`
	OK           bool   `json:"ok" yaml:"ok"`
	RemotePageID string `json:"remote_page_id,omitempty" yaml:"remote_page_id,omitempty"`
	Link         string `json:"link,omitempty" yaml:"link,omitempty"`
	Status       string `json:"status,omitempty" yaml:"status,omitempty"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// JobMetadata is the aggregate record for one website-update job. It is
// stored as a single blob on its owning artifact.
type JobMetadata struct {
	Brand              string       `json:"brand" yaml:"brand"`
	SiteKey            string       `json:"site_key" yaml:"site_key"`
	JobStatus          JobStatus    `json:"job_status" yaml:"job_status"`
	RequireAllApproved bool         `json:"require_all_approved" yaml:"require_all_approved"`
	SourceKind         SourceKind   `json:"source_kind,omitempty" yaml:"source_kind,omitempty"`
	EmbeddedDetected   bool         `json:"embedded_detected" yaml:"embedded_detected"`
	SlugWarnings       []string     `json:"slug_warnings,omitempty" yaml:"slug_warnings,omitempty"`
	Pages              []PageRecord `json:"pages" yaml:"pages"`
}

// PageIndex returns the position of the page with the given source key, or -1.
func (m *JobMetadata) PageIndex(sourceKey string) int {
	for i := range m.Pages {
		if m.Pages[i].SourceKey == sourceKey {
			return i
		}
	}
	return -1
}

// ArtifactKindWebsiteUpdate is the only artifact kind this module produces.
const ArtifactKindWebsiteUpdate = "website_update"

// ArtifactStatus is the coarse top-level status shown next to an artifact.
type ArtifactStatus string

const (
	ArtifactDraft         ArtifactStatus = "draft"
	ArtifactReview        ArtifactStatus = "review"
	ArtifactApproved      ArtifactStatus = "approved"
	ArtifactPublishing    ArtifactStatus = "publishing"
	ArtifactPublished     ArtifactStatus = "published"
	ArtifactPublishFailed ArtifactStatus = "publish_failed"
)

// Artifact is the record that owns a job's metadata blob.
type Artifact struct {
	ID        string         `json:"id" yaml:"id"`
	Kind      string         `json:"kind" yaml:"kind"`
	Status    ArtifactStatus `json:"status" yaml:"status"`
	RawInput  string         `json:"raw_input" yaml:"-"`
	Metadata  JobMetadata    `json:"metadata" yaml:"metadata"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}
