package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"talkline/observability"

	"github.com/shirou/gopsutil/process"
)

// OnlineCounter reports how many users currently hold a live connection.
// Satisfied by the presence registry.
type OnlineCounter interface {
	Online() int
}

// StatsWorker samples this process's CPU and memory usage and folds them,
// together with the presence count, into the monitor snapshot.
type StatsWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	presence OnlineCounter
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, monitor *observability.Monitor,
	presence OnlineCounter, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, monitor: monitor, presence: presence, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats sampling")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := proc.MemoryPercent()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}
			w.monitor.Update(w.presence.Online(), cpu, ram)
		}
	}
}
