package clock

import (
	"time"
)

// Clock produces a monotonic simulated-time signal: simulated seconds
// elapse speed times faster than wall-clock seconds. The speed factor is
// fixed at construction and treated as immutable for the life of the
// engine, per the configuration contract.
type Clock struct {
	start  time.Time
	speed  float64
	stopCh chan struct{}
}

// New creates a clock starting now with the given speed factor. A speed
// of 1 means simulated time tracks wall-clock time; higher values
// compress simulated seconds into fewer wall-clock seconds.
func New(speed float64) *Clock {
	if speed <= 0 {
		speed = 1
	}
	return &Clock{
		start:  time.Now(),
		speed:  speed,
		stopCh: make(chan struct{}),
	}
}

// Speed returns the immutable speed factor.
func (c *Clock) Speed() float64 {
	return c.speed
}

// Now returns simulated seconds elapsed since the clock was created.
func (c *Clock) Now() float64 {
	return time.Since(c.start).Seconds() * c.speed
}

// RealDuration converts a duration expressed in simulated seconds into
// the wall-clock duration a caller should actually sleep for.
func (c *Clock) RealDuration(simSeconds float64) time.Duration {
	if simSeconds <= 0 {
		return 0
	}
	return time.Duration(simSeconds / c.speed * float64(time.Second))
}

// Tick starts a background loop that calls emit with the current
// simulated time at the given real-time cadence, until Stop is called.
func (c *Clock) Tick(interval time.Duration, emit func(simTime float64)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				emit(c.Now())
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop ends the tick loop started by Tick.
func (c *Clock) Stop() {
	close(c.stopCh)
}
