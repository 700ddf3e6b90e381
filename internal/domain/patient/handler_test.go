package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type mockPatientSource struct {
	body    json.RawMessage
	lastQ   string
	failure bool
}

func (m *mockPatientSource) SearchPatientsRaw(_ context.Context, cardNumber string) (json.RawMessage, error) {
	m.lastQ = cardNumber
	if m.failure {
		return nil, fmt.Errorf("upstream unreachable")
	}
	return m.body, nil
}

func postPatientLookup(src Source, body string) *httptest.ResponseRecorder {
	e := echo.New()
	NewHandler(src).RegisterRoutes(e.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/lookup", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPatientLookup_PassesBodyThrough(t *testing.T) {
	upstream := `{"results":[{"uuid":"pat-1","display":"MRN-001 - Test Patient"}]}`
	src := &mockPatientSource{body: json.RawMessage(upstream)}

	rec := postPatientLookup(src, `{"cardNumber":"MRN-001"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.TrimSpace(rec.Body.String()) != upstream {
		t.Errorf("response body was not passed through: %s", rec.Body.String())
	}
	if src.lastQ != "MRN-001" {
		t.Errorf("expected card number forwarded, got %q", src.lastQ)
	}
}

func TestPatientLookup_MissingCardNumber(t *testing.T) {
	rec := postPatientLookup(&mockPatientSource{}, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPatientLookup_UpstreamFailure(t *testing.T) {
	rec := postPatientLookup(&mockPatientSource{failure: true}, `{"cardNumber":"MRN-001"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
