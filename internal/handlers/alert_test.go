package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/alerting"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/handlers"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/reliefgrid/relief-api/internal/routes"
	"github.com/rs/zerolog"
)

type fakeAlertService struct {
	alert      models.Alert
	ingestErr  error
	ackErr     error
	listFilter repository.ListAlertsFilter
}

func (f *fakeAlertService) Ingest(ctx context.Context, input alerting.AlertInput) (models.Alert, error) {
	if f.ingestErr != nil {
		return models.Alert{}, f.ingestErr
	}
	return f.alert, nil
}

func (f *fakeAlertService) Acknowledge(ctx context.Context, id string) (models.Alert, error) {
	if f.ackErr != nil {
		return models.Alert{}, f.ackErr
	}
	return f.alert, nil
}

func (f *fakeAlertService) Get(ctx context.Context, id string) (models.Alert, error) {
	if f.alert.ID != id {
		return models.Alert{}, apperr.NotFound("alert " + id)
	}
	return f.alert, nil
}

func (f *fakeAlertService) List(ctx context.Context, filter repository.ListAlertsFilter) ([]models.Alert, error) {
	f.listFilter = filter
	return nil, nil
}

func (f *fakeAlertService) Update(ctx context.Context, id string, patch models.AlertPatch) (models.Alert, error) {
	return f.alert, nil
}

func (f *fakeAlertService) Delete(ctx context.Context, id string) (int64, error) {
	if f.alert.ID != id {
		return 0, nil
	}
	return 1, nil
}

func newAlertTestRouter(svc *fakeAlertService) http.Handler {
	logger := zerolog.Nop()
	alertHandler := handlers.NewAlertHandler(svc, logger)
	donationHandler := handlers.NewDonationHandler(nil, logger)
	userHandler := handlers.NewUserHandler(nil, logger)
	contentHandler := handlers.NewContentHandler(nil, logger)
	missionHandler := handlers.NewMissionHandler(nil, nil, logger)
	streamHandler := handlers.NewStreamHandler(nil, "*", logger)
	return routes.NewRouter(alertHandler, donationHandler, userHandler, contentHandler, missionHandler, streamHandler)
}

func TestAlertCreate(t *testing.T) {
	svc := &fakeAlertService{alert: models.Alert{ID: "alert-1", Headline: "Storm surge warning"}}
	router := newAlertTestRouter(svc)

	body := `{"headline":"Storm surge warning","location":"Coastal Road","submitted_by":{"name":"Jamie","email":"jamie@example.com"}}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body)))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var got models.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "alert-1" {
		t.Fatalf("expected persisted alert back, got %+v", got)
	}
}

func TestAlertCreateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ingestErr  error
		wantStatus int
	}{
		{"malformed-json", `{"headline":`, nil, http.StatusBadRequest},
		{"validation", `{}`, apperr.Validation("headline is required"), http.StatusBadRequest},
		{"storage", `{}`, apperr.Storage(errors.New("down"), "insert alert"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAlertTestRouter(&fakeAlertService{ingestErr: tt.ingestErr})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAlertListReturnsEmptyArray(t *testing.T) {
	router := newAlertTestRouter(&fakeAlertService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestAlertListFilterParsing(t *testing.T) {
	svc := &fakeAlertService{}
	router := newAlertTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/alerts?email=jamie%40example.com&status=Active&limit=3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := repository.ListAlertsFilter{SubmitterEmail: "jamie@example.com", Status: models.AlertStatusActive, Limit: 3}
	if svc.listFilter != want {
		t.Fatalf("expected filter %+v, got %+v", want, svc.listFilter)
	}
}

func TestAlertLatestUsesFixedLimit(t *testing.T) {
	svc := &fakeAlertService{}
	router := newAlertTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/alerts/latest", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.listFilter.Limit != 6 {
		t.Fatalf("expected the landing-page limit of 6, got %d", svc.listFilter.Limit)
	}
}

func TestAlertAcknowledgeConflict(t *testing.T) {
	svc := &fakeAlertService{
		ackErr: errors.Wrap(apperr.ErrInvalidTransition, "cannot acknowledge alert in status Completed"),
	}
	router := newAlertTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/alerts/alert-1/acknowledge", nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAlertGetNotFound(t *testing.T) {
	router := newAlertTestRouter(&fakeAlertService{alert: models.Alert{ID: "alert-1"}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/alerts/alert-2", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAlertDelete(t *testing.T) {
	router := newAlertTestRouter(&fakeAlertService{alert: models.Alert{ID: "alert-1"}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/alerts/alert-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/alerts/alert-2", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown alert, got %d", w.Code)
	}
}
