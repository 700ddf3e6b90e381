package concept

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hims/hims/internal/platform/auth"
)

var handlerTestKey = []byte("concept-handler-test-key")

func signTestToken(t *testing.T, name string) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: name,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(handlerTestKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func setupConceptAPI(src Source, repo Repository) *echo.Echo {
	e := echo.New()
	svc := NewService(src, repo, "All Orderables", 1, zerolog.Nop())
	requireAuth := auth.Middleware(auth.Config{SigningKey: handlerTestKey})
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"), requireAuth)
	return e
}

func TestSyncHandler_Success(t *testing.T) {
	src := syncFixture()
	repo := newMockRepo()
	e := setupConceptAPI(src, repo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/concepts/sync", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "Dr. Alemu"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
		Panels  int    `json:"panels"`
		Skipped int    `json:"skipped"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("expected count 2, got %d", body.Count)
	}
	if body.Message == "" {
		t.Error("expected a summary message")
	}

	// The verified name claim attributes the run.
	if repo.records["cbc"].CreatedBy != "Dr. Alemu" {
		t.Errorf("expected actor from token name, got %q", repo.records["cbc"].CreatedBy)
	}
}

func TestSyncHandler_Unauthorized(t *testing.T) {
	e := setupConceptAPI(syncFixture(), newMockRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/concepts/sync", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSyncHandler_RootSetMissing(t *testing.T) {
	src := newMockSource()
	e := setupConceptAPI(src, newMockRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/concepts/sync", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "admin"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSyncHandler_UpstreamFailure(t *testing.T) {
	src := syncFixture()
	src.failList = true
	e := setupConceptAPI(src, newMockRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/concepts/sync", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "admin"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error field in body")
	}
}

func TestListHandler(t *testing.T) {
	repo := newMockRepo()
	repo.records["c-1"] = &LocalConceptRecord{UUID: "c-1", DisplayName: "Glucose"}
	e := setupConceptAPI(newMockSource(), repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/concepts?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "admin"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Concepts []*LocalConceptRecord `json:"concepts"`
		Total    int                   `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 1 {
		t.Errorf("expected total 1, got %d", body.Total)
	}
}
