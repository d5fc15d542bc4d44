package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/folio/internal/scheduler"
)

// DatabaseChecker is a database that can be pinged
type DatabaseChecker interface {
	QuickCheck(ctx context.Context) error
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status        string            `json:"status"` // "healthy" or "degraded"
	UptimeSeconds int64             `json:"uptime_seconds"`
	GoVersion     string            `json:"go_version"`
	Goroutines    int               `json:"goroutines"`
	CPUPercent    float64           `json:"cpu_percent"`
	RAMPercent    float64           `json:"ram_percent"`
	Databases     map[string]string `json:"databases"`
	Jobs          []string          `json:"jobs"`
}

// SystemHandlers serves host status and manual job triggers
type SystemHandlers struct {
	log       zerolog.Logger
	databases map[string]DatabaseChecker
	jobs      map[string]scheduler.Job
	startTime time.Time
	stats     func() (float64, float64)
}

// NewSystemHandlers creates a new SystemHandlers
func NewSystemHandlers(log zerolog.Logger, databases map[string]DatabaseChecker, jobs map[string]scheduler.Job) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		databases: databases,
		jobs:      jobs,
		startTime: time.Now(),
	}
	h.stats = h.getSystemStats
	return h
}

// HandleSystemStatus returns host and database status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.stats()
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Databases:     make(map[string]string, len(h.databases)),
		Jobs:          h.jobNames(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, db := range h.databases {
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Database check failed")
			response.Databases[name] = err.Error()
			response.Status = "degraded"
			continue
		}
		response.Databases[name] = "ok"
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs returns the names of the registered jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.jobNames()})
}

// HandleRunJob runs a registered job immediately and waits for it
// POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	start := time.Now()
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"job":   name,
			"error": err.Error(),
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run completed")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":         name,
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (h *SystemHandlers) jobNames() []string {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
