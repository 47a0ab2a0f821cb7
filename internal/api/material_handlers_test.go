package api

import (
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetMaterial(t *testing.T) {
	ts := setupTestServer(t, nil)
	reg := ts.registerUser(t, "anna@school.hu", "Anna")

	m := ts.createMaterial(t, reg.AccessToken, "Cell structure worksheet")
	assert.NotZero(t, m.ID)
	assert.Equal(t, "Anna", m.AuthorName)
	require.Len(t, m.Attachments, 1)
	assert.True(t, m.Attachments[0].IsMain)
	assert.Equal(t, "notes.pdf", m.FileName)

	resp := ts.api.Get(fmt.Sprintf("/api/v1/materials/%d", m.ID))
	require.Equal(t, http.StatusOK, resp.Code)

	var got MaterialResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, m.Title, got.Title)
}

func TestCreateMaterialRequiresAuth(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.multipartRequest(t, "/api/v1/materials", "", map[string]string{
		"title": "No auth", "subject": "s", "grade": "1", "type": "t",
	}, map[string]string{"a.pdf": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListMaterialsEndpoint(t *testing.T) {
	ts := setupTestServer(t, nil)
	reg := ts.registerUser(t, "anna@school.hu", "Anna")

	ts.createMaterial(t, reg.AccessToken, "Photosynthesis slides")
	ts.createMaterial(t, reg.AccessToken, "Algebra drills")
	ts.createMaterial(t, reg.AccessToken, "Algebra homework")

	resp := ts.api.Get("/api/v1/materials")
	require.Equal(t, http.StatusOK, resp.Code)

	var page MaterialsPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Materials, 3)
	assert.Equal(t, 20, page.Limit)
	assert.False(t, page.HasMore)

	// Text search narrows the page.
	resp = ts.api.Get("/api/v1/materials?q=algebra")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Materials, 2)

	// Garbage parameters degrade to defaults instead of failing.
	resp = ts.api.Get(`/api/v1/materials?limit=banana&offset=-3&sort=bogus&q=%22%3B%20DROP%20TABLE%20materials%3B--`)
	require.Equal(t, http.StatusOK, resp.Code)

	// Paging.
	resp = ts.api.Get("/api/v1/materials?limit=2")
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Materials, 2)
	assert.True(t, page.HasMore)
}

func TestListMineEndpoint(t *testing.T) {
	ts := setupTestServer(t, nil)
	anna := ts.registerUser(t, "anna@school.hu", "Anna")
	bela := ts.registerUser(t, "bela@school.hu", "Béla")

	ts.createMaterial(t, anna.AccessToken, "Annas worksheet")
	ts.createMaterial(t, bela.AccessToken, "Belas worksheet")

	resp := ts.api.Get("/api/v1/materials?mine=true", bearer(anna.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var page MaterialsPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Materials, 1)
	assert.Equal(t, "Annas worksheet", page.Materials[0].Title)

	// Anonymous callers cannot ask for "mine".
	resp = ts.api.Get("/api/v1/materials?mine=true")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdateAndDeleteMaterialOwnership(t *testing.T) {
	ts := setupTestServer(t, nil)
	owner := ts.registerUser(t, "anna@school.hu", "Anna")
	other := ts.registerUser(t, "bela@school.hu", "Béla")

	m := ts.createMaterial(t, owner.AccessToken, "Fractions practice")

	update := map[string]any{
		"title":   "Fractions practice v2",
		"subject": "math",
		"grade":   "5",
		"type":    "worksheet",
	}

	resp := ts.api.Put(fmt.Sprintf("/api/v1/materials/%d", m.ID), bearer(other.AccessToken), update)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Put(fmt.Sprintf("/api/v1/materials/%d", m.ID), bearer(owner.AccessToken), update)
	require.Equal(t, http.StatusOK, resp.Code)

	var updated MaterialResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Fractions practice v2", updated.Title)

	resp = ts.api.Delete(fmt.Sprintf("/api/v1/materials/%d", m.ID), bearer(other.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete(fmt.Sprintf("/api/v1/materials/%d", m.ID), bearer(owner.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/materials/%d", m.ID))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestFavoritesEndpoints(t *testing.T) {
	ts := setupTestServer(t, nil)
	owner := ts.registerUser(t, "anna@school.hu", "Anna")
	reader := ts.registerUser(t, "bela@school.hu", "Béla")

	first := ts.createMaterial(t, owner.AccessToken, "First material")
	second := ts.createMaterial(t, owner.AccessToken, "Second material")

	resp := ts.api.Put(fmt.Sprintf("/api/v1/materials/%d/favorite", first.ID), bearer(reader.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/favorites", bearer(reader.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var favs FavoritesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &favs))
	assert.Equal(t, []int64{first.ID}, favs.MaterialIDs)

	// The favorite filter needs authentication.
	resp = ts.api.Get("/api/v1/materials?favorite=true")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/materials?favorite=true", bearer(reader.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var page MaterialsPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Materials, 1)
	assert.Equal(t, first.ID, page.Materials[0].ID)
	_ = second

	resp = ts.api.Delete(fmt.Sprintf("/api/v1/materials/%d/favorite", first.ID), bearer(reader.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/favorites", bearer(reader.AccessToken))
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &favs))
	assert.Empty(t, favs.MaterialIDs)
}

func TestViewAndDownloadCounters(t *testing.T) {
	ts := setupTestServer(t, nil)
	reg := ts.registerUser(t, "anna@school.hu", "Anna")
	m := ts.createMaterial(t, reg.AccessToken, "Counted material")

	resp := ts.api.Post(fmt.Sprintf("/api/v1/materials/%d/view", m.ID))
	require.Equal(t, http.StatusOK, resp.Code)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/files/%d/download", m.Attachments[0].ID), nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pdf bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="notes.pdf"`)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/materials/%d", m.ID))
	var got MaterialResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, int64(1), got.Downloads)
}

func TestAddAndDeleteFilesEndpoints(t *testing.T) {
	ts := setupTestServer(t, nil)
	reg := ts.registerUser(t, "anna@school.hu", "Anna")
	m := ts.createMaterial(t, reg.AccessToken, "Two file material")

	rec := ts.multipartRequest(t, fmt.Sprintf("/api/v1/materials/%d/files", m.ID), reg.AccessToken,
		nil, map[string]string{"extra.pdf": "extra bytes"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var withExtra MaterialResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withExtra))
	require.Len(t, withExtra.Attachments, 2)

	var extraID int64
	for _, f := range withExtra.Attachments {
		if !f.IsMain {
			extraID = f.ID
		}
	}

	// Promote the extra file to main.
	resp := ts.api.Put(fmt.Sprintf("/api/v1/materials/%d/files/%d/main", m.ID, extraID), bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var promoted MaterialResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &promoted))
	assert.Equal(t, "extra.pdf", promoted.FileName)

	// Delete it; the original file becomes main again.
	resp = ts.api.Delete(fmt.Sprintf("/api/v1/materials/%d/files/%d", m.ID, extraID), bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var afterDelete MaterialResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &afterDelete))
	require.Len(t, afterDelete.Attachments, 1)
	assert.Equal(t, "notes.pdf", afterDelete.FileName)

	// The last file without a link stays.
	resp = ts.api.Delete(fmt.Sprintf("/api/v1/materials/%d/files/%d", m.ID, afterDelete.Attachments[0].ID), bearer(reg.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestStatsEndpoint(t *testing.T) {
	ts := setupTestServer(t, nil)
	reg := ts.registerUser(t, "anna@school.hu", "Anna")
	ts.createMaterial(t, reg.AccessToken, "Counted material")

	resp := ts.api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Materials)
}
