package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Status is the health of one component or of the whole process.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Response is the body returned by both health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single checker.
type CheckResult struct {
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Handler serves liveness and readiness probes.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewHandler creates a Handler whose readiness checks share a 5s budget.
func NewHandler() *Handler {
	return &Handler{
		checkers: make(map[string]Checker),
		timeout:  5 * time.Second,
	}
}

// Register adds a named checker. Registering the same name twice replaces it.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Names returns the registered checker names in sorted order.
func (h *Handler) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LivenessHandler always answers 200 while the process is running.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs every checker concurrently and answers 200 when all
// are up, 503 otherwise.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		resp := h.Check(ctx)
		status := http.StatusOK
		if resp.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeResponse(w, status, resp)
	}
}

// Check runs all registered checkers and aggregates the result.
func (h *Handler) Check(ctx context.Context) Response {
	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for k, v := range h.checkers {
		checkers[k] = v
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			start := time.Now()
			res := CheckResult{Status: StatusUp}
			if err := checker(ctx); err != nil {
				res = CheckResult{Status: StatusDown, Error: err.Error()}
			}
			res.Duration = time.Since(start).String()

			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	overall := StatusUp
	for _, res := range results {
		if res.Status == StatusDown {
			overall = StatusDown
		}
	}

	return Response{Status: overall, Timestamp: time.Now().UTC(), Checks: results}
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
