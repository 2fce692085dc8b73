package domain

// JobStatus is the aggregate review/publish state of a job.
type JobStatus string

const (
	JobDraft         JobStatus = "DRAFT"
	JobInReview      JobStatus = "IN_REVIEW"
	JobApproved      JobStatus = "APPROVED"
	JobPublishing    JobStatus = "PUBLISHING"
	JobPublished     JobStatus = "PUBLISHED"
	JobFailed        JobStatus = "FAILED"
	JobPartialFailed JobStatus = "PARTIAL_FAILED"
)

// IsPublishPhase reports whether the status is past the review cycle.
// Approval edits never move a job out of these states.
func (s JobStatus) IsPublishPhase() bool {
	switch s {
	case JobPublishing, JobPublished, JobFailed, JobPartialFailed:
		return true
	}
	return false
}

// ComputePrePublish recomputes the job status after an approval change.
func ComputePrePublish(pages []PageRecord, current JobStatus) JobStatus {
	if current.IsPublishPhase() {
		return current
	}

	approved, needsChanges := 0, 0
	for _, p := range pages {
		switch p.ApprovalStatus {
		case ApprovalApproved:
			approved++
		case ApprovalNeedsChanges:
			needsChanges++
		}
	}

	switch {
	case len(pages) > 0 && approved == len(pages):
		return JobApproved
	case needsChanges > 0:
		return JobInReview
	case approved > 0:
		return JobInReview
	case current == JobDraft:
		return current
	default:
		return JobInReview
	}
}

// ComputePostPublish aggregates a finished publish batch.
// An empty batch has nothing failed and counts as published.
func ComputePostPublish(results []PageResult) JobStatus {
	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	switch {
	case ok == len(results):
		return JobPublished
	case ok > 0:
		return JobPartialFailed
	default:
		return JobFailed
	}
}

// ArtifactStatusFor maps a job status onto the artifact's top-level status
// after a publish batch.
func ArtifactStatusFor(s JobStatus) ArtifactStatus {
	switch s {
	case JobApproved:
		return ArtifactApproved
	case JobPublishing:
		return ArtifactPublishing
	case JobPublished:
		return ArtifactPublished
	case JobFailed, JobPartialFailed:
		return ArtifactPublishFailed
	case JobDraft:
		return ArtifactDraft
	default:
		return ArtifactReview
	}
}
