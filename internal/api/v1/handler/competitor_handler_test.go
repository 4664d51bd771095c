package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/internal/logger"
	"app/internal/model"
	"app/internal/service"
)

// stubCompetitorService returns canned values per call.
type stubCompetitorService struct {
	list       []model.Competitor
	competitor *model.Competitor
	deleteName string
	err        error
	stats      *service.CompetitorStats
	platforms  *service.PlatformBreakdown
}

func (s *stubCompetitorService) List(ctx context.Context, userID string) ([]model.Competitor, error) {
	return s.list, s.err
}

func (s *stubCompetitorService) Add(ctx context.Context, userID, name, domain, industry string, spend float64) (*model.Competitor, error) {
	return s.competitor, s.err
}

func (s *stubCompetitorService) Update(ctx context.Context, userID, competitorID string, update model.CompetitorUpdate) (*model.Competitor, error) {
	return s.competitor, s.err
}

func (s *stubCompetitorService) Delete(ctx context.Context, userID, competitorID string) (string, error) {
	return s.deleteName, s.err
}

func (s *stubCompetitorService) Stats(ctx context.Context, userID string) (*service.CompetitorStats, error) {
	return s.stats, s.err
}

func (s *stubCompetitorService) Platforms(ctx context.Context, userID string) (*service.PlatformBreakdown, error) {
	return s.platforms, s.err
}

func newCompetitorTestServer(t *testing.T, svc *stubCompetitorService) *httptest.Server {
	t.Helper()
	h := NewCompetitorHandler(svc, validator.New(validator.WithRequiredStructEnabled()), logger.New())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, testAuthMw("user-1"))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCompetitorList(t *testing.T) {
	svc := &stubCompetitorService{list: []model.Competitor{
		{ID: "c-1", UserID: "user-1", Name: "Acme"},
		{ID: "c-2", UserID: "user-1", Name: "Globex"},
	}}
	srv := newCompetitorTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/competitors")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, true, body["success"])
}

func TestCompetitorAddHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &stubCompetitorService{competitor: &model.Competitor{ID: "c-1", UserID: "user-1", Name: "Acme"}}
		srv := newCompetitorTestServer(t, svc)

		resp, err := http.Post(srv.URL+"/competitors", "application/json", strings.NewReader(`{"name":"Acme"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Competitor added successfully", body["message"])
	})

	t.Run("missing name", func(t *testing.T) {
		srv := newCompetitorTestServer(t, &stubCompetitorService{})

		resp, err := http.Post(srv.URL+"/competitors", "application/json", strings.NewReader(`{"domain":"acme.com"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Competitor name is required", body["error"])
	})

	t.Run("duplicate includes the existing id", func(t *testing.T) {
		svc := &stubCompetitorService{
			competitor: &model.Competitor{ID: "c-1", UserID: "user-1", Name: "Acme"},
			err:        service.ErrCompetitorExists,
		}
		srv := newCompetitorTestServer(t, svc)

		resp, err := http.Post(srv.URL+"/competitors", "application/json", strings.NewReader(`{"name":"Acme"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "c-1", body["competitor_id"])
		assert.Contains(t, body["error"], `"Acme" already exists`)
	})
}

func TestCompetitorUpdateHandler(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		svc := &stubCompetitorService{competitor: &model.Competitor{ID: "c-1", UserID: "user-1", Name: "Acme Corp"}}
		srv := newCompetitorTestServer(t, svc)

		req, err := http.NewRequest(http.MethodPut, srv.URL+"/competitors/c-1", strings.NewReader(`{"name":"Acme Corp"}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubCompetitorService{err: service.ErrCompetitorNotFound}
		srv := newCompetitorTestServer(t, svc)

		req, err := http.NewRequest(http.MethodPut, srv.URL+"/competitors/nope", strings.NewReader(`{"name":"X"}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("empty update", func(t *testing.T) {
		svc := &stubCompetitorService{err: service.ErrNoFieldsToUpdate}
		srv := newCompetitorTestServer(t, svc)

		req, err := http.NewRequest(http.MethodPut, srv.URL+"/competitors/c-1", strings.NewReader(`{}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCompetitorDeleteHandler(t *testing.T) {
	svc := &stubCompetitorService{deleteName: "Acme"}
	srv := newCompetitorTestServer(t, svc)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/competitors/c-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, `Competitor "Acme" deleted successfully`, body["message"])
}

func TestCompetitorStatsHandler(t *testing.T) {
	svc := &stubCompetitorService{stats: &service.CompetitorStats{
		TotalCompetitors: 3,
		SuccessRate:      66.7,
		FetchStatus:      map[string]int{"success": 2, "failed": 1, "pending": 0, "no_ads": 0},
	}}
	srv := newCompetitorTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/competitors/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total_competitors"])
	assert.Equal(t, 66.7, data["success_rate"])
}

func TestCompetitorHealthIsPublic(t *testing.T) {
	// Served without the auth middleware.
	svc := &stubCompetitorService{}
	h := NewCompetitorHandler(svc, validator.New(validator.WithRequiredStructEnabled()), logger.New())
	mux := http.NewServeMux()
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
	h.RegisterRoutes(mux, deny)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/competitors/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "competitors", body["service"])
}
