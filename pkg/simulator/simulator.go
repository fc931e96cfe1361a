package simulator

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/dispatcher/pkg/dispatcher"
	"github.com/cuemby/dispatcher/pkg/events"
	"github.com/cuemby/dispatcher/pkg/log"
	"github.com/cuemby/dispatcher/pkg/request"
)

var transportTypes = []request.TransportType{request.Stretcher, request.Wheelchair, request.Bed}

// Simulator generates synthetic transport requests against a Dispatcher
// on a fixed real-time cadence. It holds no domain state of its own;
// every request it creates goes through the dispatcher's normal command
// API and triggers the dispatcher's normal re-plan.
type Simulator struct {
	mu       sync.Mutex
	d        *dispatcher.Dispatcher
	interval time.Duration
	rng      *rand.Rand
	stopCh   chan struct{}
	running  bool
}

// New creates a simulator against d, firing every interval (5s if
// interval is zero or negative), seeded deterministically for
// reproducible synthetic load in tests.
func New(d *dispatcher.Dispatcher, interval time.Duration, seed int64) *Simulator {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Simulator{
		d:        d,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Running reports whether the generator loop is currently active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins the generator loop, a no-op if already running.
func (s *Simulator) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.d.EventBroker().Publish(events.NewSimulationEvent(map[string]any{"action": "started"}))
	go s.run(stopCh)
}

// Stop ends the generator loop, a no-op if not running.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.d.EventBroker().Publish(events.NewSimulationEvent(map[string]any{"action": "stopped"}))
}

// Toggle sets the generator's running state to match running, per the
// toggle_simulation command.
func (s *Simulator) Toggle(running bool) {
	if running {
		s.Start()
	} else {
		s.Stop()
	}
}

func (s *Simulator) run(stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.generateOne()
		case <-stopCh:
			return
		}
	}
}

func (s *Simulator) generateOne() {
	nodes := s.d.Graph().Nodes()
	if len(nodes) < 2 {
		return
	}
	sort.Strings(nodes)

	s.mu.Lock()
	origin := nodes[s.rng.Intn(len(nodes))]
	destination := origin
	for destination == origin {
		destination = nodes[s.rng.Intn(len(nodes))]
	}
	transportType := transportTypes[s.rng.Intn(len(transportTypes))]
	urgent := s.rng.Intn(4) == 0
	s.mu.Unlock()

	id, errc := s.d.CreateRequest(origin, destination, transportType, urgent)
	if errc != nil {
		log.WithComponent("simulator").Warn().Str("error", errc.Error()).Msg("generated request rejected")
		return
	}
	s.d.EventBroker().Publish(events.NewSimulationEvent(map[string]any{
		"action":  "request_generated",
		"request": id,
	}))
}
