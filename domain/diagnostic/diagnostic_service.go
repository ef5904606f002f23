package diagnostic

import (
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/robotbridge/pkg/device"
)

// SystemMetrics represents process and device diagnostics
type SystemMetrics struct {
	Timestamp  time.Time             `json:"timestamp"`
	RobotID    string                `json:"robot_id"`
	Uptime     string                `json:"uptime"`
	Goroutines int                   `json:"goroutines"`
	HeapAlloc  string                `json:"heap_alloc"`
	NumGC      uint32                `json:"num_gc"`
	Devices    string                `json:"devices"`
	Handles    []device.HandleStatus `json:"handles"`
}

// DiagnosticService samples diagnostics on request
type DiagnosticService struct {
	robotID  string
	provider device.Provider
	started  time.Time
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(robotID string, provider device.Provider) *DiagnosticService {
	return &DiagnosticService{
		robotID:  robotID,
		provider: provider,
		started:  time.Now(),
	}
}

// GetMetricsHandler handles API requests for system metrics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.Refresh(),
	})
}

// Refresh samples the process state. Device status comes from the provider's
// record of the bridge loop's own calls, so no device is touched here.
func (s *DiagnosticService) Refresh() SystemMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemMetrics{
		Timestamp:  time.Now(),
		RobotID:    s.robotID,
		Uptime:     humanize.RelTime(s.started, time.Now(), "", ""),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  humanize.Bytes(mem.HeapAlloc),
		NumGC:      mem.NumGC,
		Devices:    string(s.provider.Kind()),
		Handles:    s.provider.Status(),
	}
}
