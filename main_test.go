package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	"chess-scout/config"
	"chess-scout/importer"
	"chess-scout/models"
	"chess-scout/scraper"
	"chess-scout/services"
	"chess-scout/storage"
)

type stubExtractor struct{ done chan string }

func (s stubExtractor) Extract(_ context.Context, playerID string) (models.GamesDocument, scraper.Report, error) {
	defer func() { s.done <- playerID }()
	return models.GamesDocument{Player: models.PlayerProfile{ID: playerID}}, scraper.Report{Mode: scraper.ModeTournament}, nil
}

type stubStore struct {
	snaps []models.GamesSnapshot
}

func (s *stubStore) SaveSnapshot(_ context.Context, snap *models.GamesSnapshot) error {
	s.snaps = append(s.snaps, *snap)
	return nil
}

func (s *stubStore) LatestSnapshot(_ context.Context, playerID string) (*models.GamesSnapshot, error) {
	for i := len(s.snaps) - 1; i >= 0; i-- {
		if s.snaps[i].PlayerID == playerID {
			return &s.snaps[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubStore) ListSnapshots(_ context.Context, playerID string, _ int) ([]models.GamesSnapshot, error) {
	var out []models.GamesSnapshot
	for _, snap := range s.snaps {
		if snap.PlayerID == playerID {
			snap.Document = nil
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *stubStore) SaveImportRun(context.Context, *models.ImportRun) error { return nil }

type stubChat struct{}

func (stubChat) Chat(context.Context, string, string) (string, error) {
	return `[{"name":"John Smith","rating":1500}]`, nil
}

func newTestRouter(t *testing.T, cfg *config.Config, store services.SnapshotStore) (*gin.Engine, chan string) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	done := make(chan string, 1)
	scrapes := services.NewScrapeService(cfg, stubExtractor{done: done}, nil, nil, log)
	imports := services.NewImportService(importer.NewImporter(stubChat{}, log), nil, nil, log)
	return setupRouter(cfg, scrapes, imports, store), done
}

func serve(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyMiddleware(t *testing.T) {
	r, _ := newTestRouter(t, &config.Config{APISecretKey: "k"}, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "", map[string]string{"X-API-KEY": "k"}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", nil).Code)
}

func TestScrapeRoute(t *testing.T) {
	r, done := newTestRouter(t, &config.Config{}, nil)

	w := serve(r, http.MethodPost, "/players/123/scrape", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"message":"Scrape triggered.","player_id":"123"}`, w.Body.String())

	select {
	case id := <-done:
		assert.Equal(t, "123", id)
	case <-time.After(2 * time.Second):
		t.Fatal("scrape did not run")
	}
}

func TestScrapeRouteRejectsBlankID(t *testing.T) {
	r, done := newTestRouter(t, &config.Config{}, nil)

	w := serve(r, http.MethodPost, "/players/%20/scrape", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"player id is required"}`, w.Body.String())

	select {
	case id := <-done:
		t.Fatalf("scrape started for %q", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGamesRoutes(t *testing.T) {
	store := &stubStore{snaps: []models.GamesSnapshot{
		{PlayerID: "123", RunID: "r1", GameCount: 2, Document: datatypes.JSON(`{"player":{"uscf_id":"123"},"games":{}}`)},
	}}
	r, _ := newTestRouter(t, &config.Config{}, store)

	w := serve(r, http.MethodGet, "/players/123/games", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"player":{"uscf_id":"123"},"games":{}}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/players/999/games", "", nil).Code)

	w = serve(r, http.MethodGet, "/players/123/snapshots", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
	assert.NotContains(t, w.Body.String(), `"document"`)
}

func TestGamesRoutesWithoutPersistence(t *testing.T) {
	r, _ := newTestRouter(t, &config.Config{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/players/123/games", "", nil).Code)
}

func TestImportRoute(t *testing.T) {
	r, _ := newTestRouter(t, &config.Config{}, nil)

	w := serve(r, http.MethodPost, "/imports", `{"text":"John Smith 1500"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"John Smith"`)

	w = serve(r, http.MethodPost, "/imports", `{"text":""}`, nil)
	assert.JSONEq(t, `{"success":false,"error":"No input text provided"}`, w.Body.String())

	w = serve(r, http.MethodPost, "/imports", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
