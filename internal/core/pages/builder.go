package pages

import (
	"strings"

	"sitepub/internal/core/domain"
)

// FallbackKey is the source key of the single page produced when the
// renderer output cannot be classified.
const FallbackKey = DefaultSlug

// JobOptions carries the routing context of a new job.
type JobOptions struct {
	Brand              string
	SiteKey            string
	RequireAllApproved bool
}

// Build turns raw renderer output into job page records. It never fails:
// blank input yields no pages and unclassifiable input yields one page
// holding the whole text.
func Build(raw string) []domain.PageRecord {
	records, _ := build(raw)
	return records
}

// NewJob builds the metadata of a fresh job from raw renderer output.
func NewJob(raw string, opts JobOptions) domain.JobMetadata {
	records, ex := build(raw)
	meta := domain.JobMetadata{
		Brand:              opts.Brand,
		SiteKey:            opts.SiteKey,
		JobStatus:          domain.JobDraft,
		RequireAllApproved: opts.RequireAllApproved,
		SourceKind:         ex.SourceKind,
		EmbeddedDetected:   ex.EmbeddedDetected,
		Pages:              records,
	}
	meta.SlugWarnings = ValidateSlugs(meta.Pages)
	return meta
}

func build(raw string) ([]domain.PageRecord, Extraction) {
	if trimInput(raw) == "" {
		return []domain.PageRecord{}, Extraction{}
	}

	ex, err := Extract(raw)
	if err != nil {
		ex = Extraction{
			Pages: []ExtractedPage{{
				Slug:     FallbackKey,
				Title:    "Page 1",
				BodyHTML: NormalizeEscapes(strings.TrimSpace(raw)),
			}},
			SourceKind: domain.SourceRawString,
		}
	}

	records := make([]domain.PageRecord, 0, len(ex.Pages))
	for _, p := range ex.Pages {
		records = append(records, newRecord(p))
	}
	return records, ex
}

func newRecord(p ExtractedPage) domain.PageRecord {
	return domain.PageRecord{
		SourceKey:      p.Slug,
		Title:          p.Title,
		TargetSlug:     p.Slug,
		BodyHTML:       p.BodyHTML,
		BodyMarkdown:   p.BodyMarkdown,
		ApprovalStatus: domain.ApprovalPending,
	}
}
