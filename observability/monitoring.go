package observability

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

// ProcessSample is the last CPU/RAM reading of the bot process.
type ProcessSample struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	RAMPercent float32   `json:"ram_percent"`
	SampledAt  time.Time `json:"sampled_at"`
}

// QueueSample is the fill level of one shard queue.
type QueueSample struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	Capacity int    `json:"capacity"`
}

// MonitoringStats is what the info endpoint exposes.
type MonitoringStats struct {
	Uptime            string         `json:"uptime"`
	GamesStarted      uint64         `json:"games_started"`
	Votes             uint64         `json:"votes"`
	Reveals           uint64         `json:"reveals"`
	Restarts          uint64         `json:"restarts"`
	Rejections        uint64         `json:"rejections"`
	TransportFailures uint64         `json:"transport_failures"`
	Panics            uint64         `json:"panics"`
	AllocMemMb        uint64         `json:"alloc_mem_mb"`
	NumGC             uint32         `json:"num_gc"`
	Goroutines        int            `json:"goroutines"`
	Process           *ProcessSample `json:"process,omitempty"`
	Queues            []QueueSample  `json:"queues,omitempty"`
}

// MonitoringManager counts what happens to games. Counters are updated
// atomically from the shard workers.
type MonitoringManager struct {
	startedAt time.Time

	gamesStarted      uint64
	votes             uint64
	reveals           uint64
	restarts          uint64
	rejections        uint64
	transportFailures uint64
	panics            uint64

	mu      sync.RWMutex
	process *ProcessSample
	queues  map[string]QueueSample
}

func NewMonitoringManager() *MonitoringManager {
	return &MonitoringManager{startedAt: time.Now(), queues: make(map[string]QueueSample)}
}

func (mm *MonitoringManager) IncrGamesStarted()      { atomic.AddUint64(&mm.gamesStarted, 1) }
func (mm *MonitoringManager) IncrVotes()             { atomic.AddUint64(&mm.votes, 1) }
func (mm *MonitoringManager) IncrReveals()           { atomic.AddUint64(&mm.reveals, 1) }
func (mm *MonitoringManager) IncrRestarts()          { atomic.AddUint64(&mm.restarts, 1) }
func (mm *MonitoringManager) IncrRejections()        { atomic.AddUint64(&mm.rejections, 1) }
func (mm *MonitoringManager) IncrTransportFailures() { atomic.AddUint64(&mm.transportFailures, 1) }
func (mm *MonitoringManager) IncrPanics()            { atomic.AddUint64(&mm.panics, 1) }

func (mm *MonitoringManager) RecordProcess(sample ProcessSample) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.process = &sample
}

func (mm *MonitoringManager) RecordQueue(sample QueueSample) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.queues[sample.Name] = sample
}

// Stats takes a consistent copy of the counters plus Go runtime memory stats.
func (mm *MonitoringManager) Stats() MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.mu.RLock()
	var process *ProcessSample
	if mm.process != nil {
		copied := *mm.process
		process = &copied
	}
	queues := lo.Values(mm.queues)
	mm.mu.RUnlock()
	sort.Slice(queues, func(i, j int) bool { return queues[i].Name < queues[j].Name })

	return MonitoringStats{
		Uptime:            time.Since(mm.startedAt).Round(time.Second).String(),
		GamesStarted:      atomic.LoadUint64(&mm.gamesStarted),
		Votes:             atomic.LoadUint64(&mm.votes),
		Reveals:           atomic.LoadUint64(&mm.reveals),
		Restarts:          atomic.LoadUint64(&mm.restarts),
		Rejections:        atomic.LoadUint64(&mm.rejections),
		TransportFailures: atomic.LoadUint64(&mm.transportFailures),
		Panics:            atomic.LoadUint64(&mm.panics),
		AllocMemMb:        m.Alloc / 1024 / 1024,
		NumGC:             m.NumGC,
		Goroutines:        runtime.NumGoroutine(),
		Process:           process,
		Queues:            queues,
	}
}
