package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/quantpick/internal/database"
	"github.com/aristath/quantpick/internal/di"
	"github.com/aristath/quantpick/internal/events"
)

// SystemHandlers serves process and host status
type SystemHandlers struct {
	container *di.Container
	startedAt time.Time
	log       zerolog.Logger

	// overridable in tests
	hostStats func() (float64, float64)
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(container *di.Container, startedAt time.Time, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		container: container,
		startedAt: startedAt,
		log:       log.With().Str("handler", "system").Logger(),
	}
	h.hostStats = h.getSystemStats
	return h
}

// DatabaseStatus reports one database's size
type DatabaseStatus struct {
	Name         string `json:"name"`
	SizeBytes    int64  `json:"size_bytes"`
	WALSizeBytes int64  `json:"wal_size_bytes"`
	PageCount    int64  `json:"page_count"`
	Error        string `json:"error,omitempty"`
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status        string           `json:"status"`
	Service       string           `json:"service"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Goroutines    int              `json:"goroutines"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemoryPercent float64          `json:"memory_percent"`
	Databases     []DatabaseStatus `json:"databases"`
	Jobs          []string         `json:"jobs"`
	ObjectStore   bool             `json:"object_store"`
	Subscribers   map[string]int   `json:"subscribers"`
	Timestamp     time.Time        `json:"timestamp"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.hostStats()

	resp := SystemStatusResponse{
		Status:        "healthy",
		Service:       ServiceName,
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Databases:     []DatabaseStatus{},
		Jobs:          []string{},
		Timestamp:     time.Now().UTC(),
	}

	if h.container != nil {
		for _, db := range h.container.Databases() {
			resp.Databases = append(resp.Databases, databaseStatus(db))
		}
		if h.container.Scheduler != nil {
			resp.Jobs = h.container.Scheduler.Jobs()
		}
		resp.ObjectStore = h.container.ObjectStore != nil
		if h.container.EventBus != nil {
			resp.Subscribers = make(map[string]int, len(events.AllTypes))
			for _, t := range events.AllTypes {
				resp.Subscribers[string(t)] = h.container.EventBus.SubscriberCount(t)
			}
		}
	}

	for _, db := range resp.Databases {
		if db.Error != "" {
			resp.Status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func databaseStatus(db *database.DB) DatabaseStatus {
	status := DatabaseStatus{Name: db.Name()}
	stats, err := db.GetStats()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.SizeBytes = stats.SizeBytes
	status.WALSizeBytes = stats.WALSizeBytes
	status.PageCount = stats.PageCount
	return status
}

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled over
// 100ms to keep the endpoint responsive.
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
