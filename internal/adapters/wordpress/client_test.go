package wordpress

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepub/internal/core/ports"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/wp-json/wp/v2/", Username: "editor", AppPassword: "abcd efgh"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresSettings(t *testing.T) {
	_, err := NewClient(Config{Username: "u", AppPassword: "p"})
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "https://example.com/wp-json/wp/v2"})
	assert.Error(t, err)
}

func TestFindPageBySlug(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("editor:abcd efgh"))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/pages", r.URL.Path)
		assert.Equal(t, "about", r.URL.Query().Get("slug"))
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`[{"id":42,"slug":"about","link":"https://example.com/?page_id=42","status":"draft"}]`))
	})

	page, err := c.FindPageBySlug(t.Context(), "about")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "42", page.ID)
	assert.Equal(t, "draft", page.Status)
	assert.Equal(t, "https://example.com/?page_id=42", page.Link)
}

func TestFindPageBySlug_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	page, err := c.FindPageBySlug(t.Context(), "missing")
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestFindPageBySlug_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.FindPageBySlug(t.Context(), "about")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestCreatePage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/pages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"title":   "About",
			"slug":    "about",
			"status":  "draft",
			"content": "<p>a</p>",
		}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"slug":"about","link":"https://example.com/?page_id=7","status":"draft"}`))
	})

	page, err := c.CreatePage(t.Context(), ports.PageDraft{Title: "About", Slug: "about", Content: "<p>a</p>"})
	require.NoError(t, err)
	assert.Equal(t, "7", page.ID)
	assert.Equal(t, "draft", page.Status)
}

func TestUpdatePage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/pages/42", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"title": "About", "content": "<p>new</p>"}, body)

		_, _ = w.Write([]byte(`{"id":42,"slug":"about","link":"https://example.com/about/","status":"publish"}`))
	})

	page, err := c.UpdatePage(t.Context(), "42", ports.PageDraft{Title: "About", Slug: "ignored", Content: "<p>new</p>"})
	require.NoError(t, err)
	assert.Equal(t, "42", page.ID)
	assert.Equal(t, "publish", page.Status)
}

func TestUpdatePage_RejectsNonNumericID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.UpdatePage(t.Context(), "abc", ports.PageDraft{})
	assert.Error(t, err)
}

func TestErrorBodyIsSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_create","message":"Sorry, you are not allowed to create posts as this user.","data":{"status":403}}`))
	})

	_, err := c.CreatePage(t.Context(), ports.PageDraft{Title: "x", Slug: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "rest_cannot_create")
	assert.Contains(t, err.Error(), "not allowed to create posts")
}
