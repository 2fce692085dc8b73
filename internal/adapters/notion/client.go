package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	gnt "github.com/dstotijn/go-notion"

	"sitepub/internal/core/ports"
)

// Property names the target database must define.
const (
	propTitle   = "Name"    // title
	propSlug    = "Slug"    // rich_text
	propContent = "Content" // rich_text
	propStatus  = "Status"  // select

	draftStatus = "Draft"

	// Notion rejects text objects longer than this.
	maxTextLength = 2000
	// and rich_text arrays with more elements than this.
	maxTextObjects = 100
)

// ErrContentTooLong is returned when a page body does not fit into one
// rich_text property.
var ErrContentTooLong = errors.New("content exceeds the notion rich_text limit")

// Config holds the Notion integration settings.
type Config struct {
	Token      string
	DatabaseID string
	Timeout    time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client implements ports.CMS on top of a Notion database, one row per page.
type Client struct {
	api        *gnt.Client
	databaseID string
}

// NewClient creates a new Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" || cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion token and database id must be set")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		api:        gnt.NewClient(cfg.Token, gnt.WithHTTPClient(hc)),
		databaseID: normalizeID(cfg.DatabaseID),
	}, nil
}

// normalizeID removes dashes if present.
func normalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// FindPageBySlug queries the database for a row whose Slug equals slug.
// Notion has no draft/private split, so every row is visible.
func (c *Client) FindPageBySlug(ctx context.Context, slug string) (*ports.RemotePage, error) {
	resp, err := c.api.QueryDatabase(ctx, c.databaseID, &gnt.DatabaseQuery{
		Filter: &gnt.DatabaseQueryFilter{
			Property: propSlug,
			DatabaseQueryPropertyFilter: gnt.DatabaseQueryPropertyFilter{
				RichText: &gnt.TextPropertyFilter{Equals: slug},
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup page %q: %w", slug, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	page := resp.Results[0]
	return &ports.RemotePage{ID: page.ID, Slug: slug, Link: page.URL}, nil
}

// CreatePage adds a row with Status set to Draft.
func (c *Client) CreatePage(ctx context.Context, draft ports.PageDraft) (*ports.RemotePage, error) {
	if err := checkLength(draft); err != nil {
		return nil, fmt.Errorf("create page %q: %w", draft.Slug, err)
	}
	props := buildProperties(draft, true)
	page, err := c.api.CreatePage(ctx, gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               c.databaseID,
		DatabasePageProperties: &props,
	})
	if err != nil {
		return nil, fmt.Errorf("create page %q: %w", draft.Slug, err)
	}
	return &ports.RemotePage{ID: page.ID, Slug: draft.Slug, Link: page.URL, Status: strings.ToLower(draftStatus)}, nil
}

// UpdatePage rewrites the Name and Content properties of an existing row.
func (c *Client) UpdatePage(ctx context.Context, id string, draft ports.PageDraft) (*ports.RemotePage, error) {
	if err := checkLength(draft); err != nil {
		return nil, fmt.Errorf("update page %s: %w", id, err)
	}
	page, err := c.api.UpdatePage(ctx, id, gnt.UpdatePageParams{
		DatabasePageProperties: buildProperties(draft, false),
	})
	if err != nil {
		return nil, fmt.Errorf("update page %s: %w", id, err)
	}
	return &ports.RemotePage{ID: page.ID, Link: page.URL}, nil
}

func buildProperties(draft ports.PageDraft, create bool) gnt.DatabasePageProperties {
	props := gnt.DatabasePageProperties{
		propTitle: gnt.DatabasePageProperty{
			Title: richText(draft.Title),
		},
		propContent: gnt.DatabasePageProperty{
			RichText: richText(draft.Content),
		},
	}
	if create {
		props[propSlug] = gnt.DatabasePageProperty{
			RichText: richText(draft.Slug),
		}
		props[propStatus] = gnt.DatabasePageProperty{
			Select: &gnt.SelectOptions{Name: draftStatus},
		}
	}
	return props
}

func checkLength(draft ports.PageDraft) error {
	const limit = maxTextLength * maxTextObjects
	if n := utf8.RuneCountInString(draft.Content); n > limit {
		return fmt.Errorf("%w: %d characters, at most %d fit", ErrContentTooLong, n, limit)
	}
	if n := utf8.RuneCountInString(draft.Title); n > limit {
		return fmt.Errorf("%w: title has %d characters", ErrContentTooLong, n)
	}
	return nil
}

// richText splits s into text objects Notion accepts. Callers reject text
// longer than the array limit with checkLength first.
func richText(s string) []gnt.RichText {
	if s == "" {
		return []gnt.RichText{}
	}
	var out []gnt.RichText
	runes := []rune(s)
	for start := 0; start < len(runes) && len(out) < maxTextObjects; start += maxTextLength {
		end := min(start+maxTextLength, len(runes))
		out = append(out, gnt.RichText{
			Text: &gnt.Text{Content: string(runes[start:end])},
		})
	}
	return out
}
