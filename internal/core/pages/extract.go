package pages

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sitepub/internal/core/domain"
)

// Classification errors. Callers match them with errors.Is.
var (
	ErrEmptyInput         = errors.New("renderer output is empty")
	ErrUnrecognizedShape  = errors.New("renderer output matches no known shape")
	ErrMissingWrappedHTML = errors.New("web_page artifact has no content.html")
)

const acceptedShapes = `accepted shapes: ` +
	`wrapped {"artifact_type":"web_page","content":{"title":"...","html":"..."}}; ` +
	`direct multi-page {"pages":[{"slug":"...","title":"...","body_html":"..."}]}; ` +
	`direct single-page {"html":"..."} or {"body":"..."}; ` +
	`nested single-page {"content":{"title":"...","html":"..."}}; ` +
	`or a bare HTML/Markdown string`

const webPageArtifactType = "web_page"

// ExtractedPage is one page as found in the renderer output, before it
// becomes a job record.
type ExtractedPage struct {
	Slug         string
	Title        string
	BodyHTML     string
	BodyMarkdown string
}

// Extraction is the result of classifying renderer output.
type Extraction struct {
	Pages      []ExtractedPage
	SourceKind domain.SourceKind
	// EmbeddedDetected is set when a wrapped artifact carried a serialized
	// page list inside content.html.
	EmbeddedDetected bool
}

// Extract classifies raw renderer output and pulls out its pages. It fails
// only for blank input or for structured input that matches no known shape;
// anything that does not parse as JSON becomes a single raw page.
//
// A wrapped artifact is unwrapped one level deep. A wrapper nested inside
// content.html is not unwrapped again and ends up as the body of one page.
func Extract(raw string) (Extraction, error) {
	text := trimInput(raw)
	if text == "" {
		return Extraction{}, ErrEmptyInput
	}

	parsed, ok := parseStructured(text)
	if !ok {
		return rawExtraction(text), nil
	}

	obj, isObject := parsed.(map[string]any)
	if !isObject {
		found := normalizeEntries(parsed.([]any))
		if len(found) == 0 {
			return Extraction{}, fmt.Errorf("%w: top-level array holds no page entries; %s", ErrUnrecognizedShape, acceptedShapes)
		}
		return Extraction{Pages: found, SourceKind: domain.SourceDirect}, nil
	}

	if isWebPageEnvelope(obj) {
		return extractWrapped(obj)
	}

	if found := pageList(obj); len(found) > 0 {
		return Extraction{Pages: found, SourceKind: domain.SourceDirect}, nil
	}

	if page, ok := directSinglePage(obj); ok {
		return Extraction{Pages: []ExtractedPage{page}, SourceKind: domain.SourceDirect}, nil
	}

	if content, ok := obj["content"].(map[string]any); ok {
		_, hasHTML := content["html"].(string)
		_, hasTitle := content["title"].(string)
		if hasHTML || hasTitle {
			page := normalizePage(map[string]any{
				"slug":  content["slug"],
				"title": content["title"],
				"html":  content["html"],
			}, 1)
			return Extraction{Pages: []ExtractedPage{page}, SourceKind: domain.SourceDirect}, nil
		}
	}

	return Extraction{}, fmt.Errorf("%w: %s", ErrUnrecognizedShape, acceptedShapes)
}

func extractWrapped(obj map[string]any) (Extraction, error) {
	content, _ := obj["content"].(map[string]any)
	html, ok := content["html"].(string)
	if !ok || strings.TrimSpace(html) == "" {
		return Extraction{}, ErrMissingWrappedHTML
	}

	if inner, ok := parseStructured(trimInput(html)); ok {
		var found []ExtractedPage
		switch v := inner.(type) {
		case map[string]any:
			found = pageList(v)
		case []any:
			found = normalizeEntries(v)
		}
		if len(found) > 0 {
			return Extraction{Pages: found, SourceKind: domain.SourceWrapped, EmbeddedDetected: true}, nil
		}
	}

	title := content["title"]
	if s, _ := title.(string); strings.TrimSpace(s) == "" {
		title = obj["title"]
	}
	t, _ := title.(string)
	page := normalizePage(map[string]any{
		"slug":  Slugify(t),
		"title": t,
		"html":  html,
	}, 1)
	return Extraction{Pages: []ExtractedPage{page}, SourceKind: domain.SourceWrapped}, nil
}

func rawExtraction(text string) Extraction {
	fields := map[string]any{}
	if looksLikeHTML(text) {
		fields["html"] = text
		fields["title"] = htmlHeading(text)
	} else {
		fields["markdown"] = text
		fields["title"] = markdownHeading(text)
	}
	return Extraction{
		Pages:      []ExtractedPage{normalizePage(fields, 1)},
		SourceKind: domain.SourceRawString,
	}
}

func directSinglePage(obj map[string]any) (ExtractedPage, bool) {
	fields := map[string]any{
		"slug":  obj["slug"],
		"title": obj["title"],
	}
	if html, ok := obj["html"].(string); ok && strings.TrimSpace(html) != "" {
		fields["html"] = html
		return normalizePage(fields, 1), true
	}
	if body, ok := obj["body"].(string); ok && strings.TrimSpace(body) != "" {
		if looksLikeHTML(body) {
			fields["html"] = body
		} else {
			fields["markdown"] = body
		}
		return normalizePage(fields, 1), true
	}
	return ExtractedPage{}, false
}

func pageList(obj map[string]any) []ExtractedPage {
	entries, ok := obj["pages"].([]any)
	if !ok {
		return nil
	}
	return normalizeEntries(entries)
}

// normalizeEntries keeps the order of the entries. Entries that are neither
// objects nor strings are skipped.
func normalizeEntries(entries []any) []ExtractedPage {
	var found []ExtractedPage
	for _, e := range entries {
		switch v := e.(type) {
		case map[string]any:
			found = append(found, normalizePage(v, len(found)+1))
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			fields := map[string]any{"markdown": v}
			if looksLikeHTML(v) {
				fields = map[string]any{"html": v}
			}
			found = append(found, normalizePage(fields, len(found)+1))
		}
	}
	uniqueKeys(found)
	return found
}

// normalizePage applies the per-page rules; n is the 1-based position used
// for the "Page N" fallback title.
func normalizePage(fields map[string]any, n int) ExtractedPage {
	ownSlug := textField(fields, "slug")
	title := textField(fields, "title")

	p := ExtractedPage{Title: title}
	if ownSlug != "" {
		p.Slug = truncateSlug(ownSlug)
	} else {
		p.Slug = Slugify(title)
	}
	if p.Title == "" {
		if ownSlug != "" {
			p.Title = ownSlug
		} else {
			p.Title = fmt.Sprintf("Page %d", n)
		}
	}

	if html, ok := bodyField(fields, "body_html", "html"); ok {
		p.BodyHTML = NormalizeEscapes(html)
	}
	if md, ok := bodyField(fields, "body_markdown", "markdown"); ok {
		p.BodyMarkdown = NormalizeEscapes(md)
	}
	return p
}

func textField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

func bodyField(fields map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func isWebPageEnvelope(obj map[string]any) bool {
	t, ok := obj["artifact_type"].(string)
	if !ok {
		return false
	}
	t = strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(t)))
	return t == webPageArtifactType
}

// trimInput strips a byte-order mark and surrounding whitespace.
func trimInput(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "\ufeff"))
}

// parseStructured strips code fences and a leading "json" line, then parses
// the rest. It only reports success for JSON objects and arrays.
func parseStructured(text string) (any, bool) {
	s := stripJSONLine(stripFence(text))
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	return nil, false
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		rest = strings.TrimPrefix(rest, "json")
	} else if tag := strings.TrimSpace(rest[:nl]); tag == "" || strings.EqualFold(tag, "json") {
		rest = rest[nl+1:]
	} else {
		return s
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// stripJSONLine drops a bare "json" first line, which some generators emit
// ahead of the payload. The literal two-character form `json\n` counts too.
func stripJSONLine(s string) string {
	if len(s) < 4 || !strings.EqualFold(s[:4], "json") {
		return s
	}
	rest := s[4:]
	switch {
	case strings.HasPrefix(rest, `\r\n`):
		rest = rest[4:]
	case strings.HasPrefix(rest, `\n`):
		rest = rest[2:]
	default:
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 || strings.TrimSpace(rest[:nl]) != "" {
			return s
		}
		rest = rest[nl+1:]
	}
	return strings.TrimSpace(rest)
}

var htmlTagPattern = regexp.MustCompile(`<(?:[a-zA-Z][a-zA-Z0-9-]*|!DOCTYPE|!--)[^>]*>`)

func looksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

func htmlHeading(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return collapseSpace(h1)
	}
	return collapseSpace(strings.TrimSpace(doc.Find("title").First().Text()))
}

func markdownHeading(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
