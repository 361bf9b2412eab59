package health

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OrFisher/real-time-speech-processor/internal/session"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T, backendURL string) *echo.Echo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := session.NewController(session.Config{}, log)

	e := echo.New()
	NewHandler(db, backendURL, ctrl, "test").RegisterRoutes(e)
	return e
}

func TestHealthAllComponentsUp(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer backend.Close()

	e := setup(t, backend.URL)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("overall = %s, want healthy", resp.Status)
	}
	if resp.Components["database"].Status != StatusHealthy || resp.Components["backend"].Status != StatusHealthy {
		t.Errorf("components = %+v", resp.Components)
	}
	if resp.Session.State != "idle" {
		t.Errorf("session state = %q, want idle", resp.Session.State)
	}
}

func TestHealthDegradedWhenBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	e := setup(t, backend.URL)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, degraded must still answer 200", rec.Code)
	}
	var resp HealthResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != StatusDegraded {
		t.Errorf("overall = %s, want degraded", resp.Status)
	}
	if resp.Components["backend"].Status != StatusUnhealthy {
		t.Errorf("backend component = %+v", resp.Components["backend"])
	}
}
