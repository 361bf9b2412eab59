package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/session"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines    int    `json:"goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type SessionStats struct {
	SessionID     string `json:"session_id,omitempty"`
	State         string `json:"state"`
	SpeakerType   string `json:"speaker_type"`
	DroppedChunks int    `json:"dropped_chunks"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Session       SessionStats               `json:"session"`
	Runtime       RuntimeStats               `json:"runtime"`
	Components    map[string]ComponentStatus `json:"components"`
}

// Handler reports whether the client can do its job: reach the backend and
// persist transcript history. The live session, if any, rides along as
// informational detail.
type Handler struct {
	db         *gorm.DB
	backendURL string
	httpClient *http.Client
	controller *session.Controller
	version    string
	startTime  time.Time
}

func NewHandler(db *gorm.DB, backendURL string, controller *session.Controller, version string) *Handler {
	return &Handler{
		db:         db,
		backendURL: backendURL,
		httpClient: &http.Client{Timeout: 2 * time.Second},
		controller: controller,
		version:    version,
		startTime:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	components := map[string]ComponentStatus{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	check := func(name string, fn func(context.Context) ComponentStatus) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := fn(ctx)
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}()
	}
	check("database", h.checkDatabase)
	check("backend", h.checkBackend)
	wg.Wait()

	overall := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			overall = StatusDegraded
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	st := h.controller.Status()
	resp := HealthResponse{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Session: SessionStats{
			SessionID:     st.SessionID,
			State:         st.State,
			SpeakerType:   st.SpeakerType.String(),
			DroppedChunks: st.DroppedChunks,
		},
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: mem.Alloc / 1024 / 1024,
			NumGC:         mem.NumGC,
		},
		Components: components,
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

func (h *Handler) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	status := ComponentStatus{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		status.Status = StatusUnhealthy
		status.Error = err.Error()
	}
	return status
}

func (h *Handler) checkBackend(ctx context.Context) ComponentStatus {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.backendURL+"/api/keywords/", nil)
	if err == nil {
		var resp *http.Response
		resp, err = h.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode >= http.StatusInternalServerError {
				err = fmt.Errorf("backend returned status %d", resp.StatusCode)
			}
		}
	}
	status := ComponentStatus{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		status.Status = StatusUnhealthy
		status.Error = err.Error()
	}
	return status
}
