package health

import (
	"sort"
	"sync"
	"time"
)

// State describes an instance's availability.
type State string

const (
	// StateHealthy means the instance serves requests normally.
	StateHealthy State = "healthy"

	// StateDegraded means recent failures lowered the score but the
	// circuit has not opened.
	StateDegraded State = "degraded"

	// StateCircuitOpen means the instance is excluded until its backoff
	// deadline passes.
	StateCircuitOpen State = "circuit_open"

	// StateProbing means the backoff deadline passed and the instance
	// may receive one trial request.
	StateProbing State = "probing"
)

const (
	// scoreWeight is the EWMA smoothing factor. Each outcome moves the
	// score 30% of the way toward 1 or 0.
	scoreWeight = 0.3

	// openThreshold is the consecutive-failure count that opens the
	// circuit.
	openThreshold = 3

	// degradedBelow is the score under which a closed-circuit instance
	// reports as degraded.
	degradedBelow = 0.5

	maxBackoff = 15 * time.Minute
)

// Instance is the tracked state for one fallback endpoint.
type Instance struct {
	URL                 string
	Score               float64
	ConsecutiveFailures int
	State               State
	RetryAt             time.Time
	LastUsed            time.Time
	LastChecked         time.Time
}

// Monitor holds instance state. All methods are safe for concurrent
// use; score updates for one instance are serialized by the monitor
// lock.
type Monitor struct {
	mu        sync.Mutex
	instances map[string]*Instance
	order     []string
	now       func() time.Time
}

// NewMonitor tracks the given instance URLs, each starting healthy with
// a full score.
func NewMonitor(urls []string) *Monitor {
	m := &Monitor{
		instances: make(map[string]*Instance, len(urls)),
		now:       time.Now,
	}
	for _, url := range urls {
		if _, ok := m.instances[url]; ok {
			continue
		}
		m.instances[url] = &Instance{URL: url, Score: 1.0, State: StateHealthy}
		m.order = append(m.order, url)
	}
	return m
}

// ReportSuccess records a successful request. Success closes the
// circuit and resets the failure streak.
func (m *Monitor) ReportSuccess(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[url]
	if !ok {
		return
	}
	inst.Score = scoreWeight*1 + (1-scoreWeight)*inst.Score
	inst.ConsecutiveFailures = 0
	inst.RetryAt = time.Time{}
	inst.LastChecked = m.now()
	if inst.Score < degradedBelow {
		inst.State = StateDegraded
	} else {
		inst.State = StateHealthy
	}
}

// ReportFailure records a failed request. Reaching the failure
// threshold opens the circuit with exponential backoff.
func (m *Monitor) ReportFailure(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[url]
	if !ok {
		return
	}
	inst.Score = (1 - scoreWeight) * inst.Score
	inst.ConsecutiveFailures++
	inst.LastChecked = m.now()
	if inst.ConsecutiveFailures >= openThreshold {
		inst.State = StateCircuitOpen
		inst.RetryAt = m.now().Add(openBackoff(inst.ConsecutiveFailures))
	} else if inst.Score < degradedBelow {
		inst.State = StateDegraded
	}
}

// openBackoff grows as 2^failures seconds, capped.
func openBackoff(failures int) time.Duration {
	d := time.Second
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// MarkUsed records that an instance was just handed a request, for
// least-recently-used tie-breaking.
func (m *Monitor) MarkUsed(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[url]; ok {
		inst.LastUsed = m.now()
	}
}

// Ranked returns eligible instance URLs in try order: highest score
// first, then fewer consecutive failures, then least recently used.
// Open circuits whose backoff deadline passed are included last as
// probing candidates; circuits still in backoff are excluded.
func (m *Monitor) Ranked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var closed, probing []*Instance
	for _, url := range m.order {
		inst := m.instances[url]
		switch inst.State {
		case StateCircuitOpen:
			if !now.Before(inst.RetryAt) {
				inst.State = StateProbing
				probing = append(probing, inst)
			}
		case StateProbing:
			probing = append(probing, inst)
		default:
			closed = append(closed, inst)
		}
	}

	rank := func(list []*Instance) {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if a.ConsecutiveFailures != b.ConsecutiveFailures {
				return a.ConsecutiveFailures < b.ConsecutiveFailures
			}
			return a.LastUsed.Before(b.LastUsed)
		})
	}
	rank(closed)
	rank(probing)

	urls := make([]string, 0, len(closed)+len(probing))
	for _, inst := range closed {
		urls = append(urls, inst.URL)
	}
	for _, inst := range probing {
		urls = append(urls, inst.URL)
	}
	return urls
}

// Snapshot returns a copy of all instance states, in registration
// order.
func (m *Monitor) Snapshot() []Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Instance, 0, len(m.order))
	for _, url := range m.order {
		out = append(out, *m.instances[url])
	}
	return out
}

// Restore seeds the monitor from persisted state. Unknown URLs are
// ignored so configuration changes drop stale entries naturally.
func (m *Monitor) Restore(saved []Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range saved {
		inst, ok := m.instances[s.URL]
		if !ok {
			continue
		}
		*inst = s
	}
}
