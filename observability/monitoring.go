package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// Stats aggregates the metrics the stats worker logs and the debug page shows.
type Stats struct {
	OnlineUsers     int     `json:"online_users"`
	MessagesStored  uint64  `json:"messages_stored"`
	PushesDelivered uint64  `json:"pushes_delivered"`
	PushesSkipped   uint64  `json:"pushes_skipped"`
	HistoryServed   uint64  `json:"history_served"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemPercent      float32 `json:"mem_percent"`
	AllocMemMb      uint64  `json:"alloc_mem_mb"`
	NumGC           uint32  `json:"num_gc"`
}

// Monitor collects routing telemetry in real time.
// Counters are atomic so the router hot path never takes the mutex;
// the mutex only guards the assembled snapshot.
type Monitor struct {
	log    *slog.Logger
	mu     sync.RWMutex
	latest Stats

	messagesStored  uint64
	pushesDelivered uint64
	pushesSkipped   uint64
	historyServed   uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log}
}

func (m *Monitor) IncrMessagesStored() {
	atomic.AddUint64(&m.messagesStored, 1)
}

func (m *Monitor) IncrPushesDelivered() {
	atomic.AddUint64(&m.pushesDelivered, 1)
}

func (m *Monitor) IncrPushesSkipped() {
	atomic.AddUint64(&m.pushesSkipped, 1)
}

func (m *Monitor) IncrHistoryServed() {
	atomic.AddUint64(&m.historyServed, 1)
}

// Update recomputes the snapshot from the counters, the Go runtime and the
// process figures sampled by the stats worker.
func (m *Monitor) Update(onlineUsers int, cpuPercent float64, memPercent float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest.OnlineUsers = onlineUsers
	m.latest.CPUPercent = cpuPercent
	m.latest.MemPercent = memPercent
	m.latest.MessagesStored = atomic.LoadUint64(&m.messagesStored)
	m.latest.PushesDelivered = atomic.LoadUint64(&m.pushesDelivered)
	m.latest.PushesSkipped = atomic.LoadUint64(&m.pushesSkipped)
	m.latest.HistoryServed = atomic.LoadUint64(&m.historyServed)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.latest.AllocMemMb = ms.Alloc / 1024 / 1024
	m.latest.NumGC = ms.NumGC

	m.log.Debug("Stats updated",
		"online_users", m.latest.OnlineUsers,
		"messages_stored", m.latest.MessagesStored,
		"pushes_delivered", m.latest.PushesDelivered,
		"pushes_skipped", m.latest.PushesSkipped,
		"mem_mb", m.latest.AllocMemMb,
	)
}

func (m *Monitor) GetLatest() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
