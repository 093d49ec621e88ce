//go:build benchprofile

package timing

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	d      time.Duration
	cycles uint64
}

type series struct {
	mu      sync.Mutex
	samples []sample
}

// Recorder collects wall time and cycle usage per "service.method".
type Recorder struct {
	mu     sync.RWMutex
	series map[string]*series
}

func New() *Recorder { return &Recorder{series: make(map[string]*series)} }

func (r *Recorder) Enabled() bool { return true }

func (r *Recorder) Record(call string, d time.Duration, cycles uint64) {
	r.mu.RLock()
	s, ok := r.series[call]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if s = r.series[call]; s == nil {
			s = &series{}
			r.series[call] = s
		}
		r.mu.Unlock()
	}
	s.mu.Lock()
	s.samples = append(s.samples, sample{d: d, cycles: cycles})
	s.mu.Unlock()
}

// Start returns a stop func that records the elapsed time with the cycles
// it is handed.
func (r *Recorder) Start(call string) func(cycles uint64) {
	start := time.Now()
	return func(cycles uint64) { r.Record(call, time.Since(start), cycles) }
}

func (r *Recorder) Snapshot() []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Row, 0, len(r.series))
	for call, s := range r.series {
		s.mu.Lock()
		samples := append([]sample(nil), s.samples...)
		s.mu.Unlock()
		if len(samples) == 0 {
			continue
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].d < samples[j].d })

		row := Row{Call: call, Count: len(samples)}
		for _, v := range samples {
			row.Total += v.d
			row.Cycles += v.cycles
		}
		p95 := int(float64(len(samples))*0.95) - 1
		if p95 < 0 {
			p95 = 0
		}
		row.Mean = row.Total / time.Duration(len(samples))
		row.P50 = samples[len(samples)/2].d
		row.P95 = samples[p95].d
		row.Max = samples[len(samples)-1].d
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
