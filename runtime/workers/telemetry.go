package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/contract"
)

// TelemetryWorker periodically logs the relay's own resource usage (RSS,
// CPU, OS status) together with the number of live connections. It is meant
// to run under the supervisor for the whole process lifetime.
type TelemetryWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry contract.IRegistry,
	metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		registry:       registry,
		metricInterval: metricInterval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker", "interval", w.metricInterval)
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			w.log.Info("Relay telemetry",
				"pid", os.Getpid(),
				"status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"connections", w.registry.Len())
		}
	}
}

// getSelfStats retrieves memory, CPU and OS status for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
