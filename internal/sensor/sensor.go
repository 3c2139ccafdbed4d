package sensor

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"bacnet-alarm-relay/internal/config"
	"bacnet-alarm-relay/internal/logger"
	"bacnet-alarm-relay/internal/metrics"
)

// Sensor simulates the analog temperature point of the virtual device.
// It publishes a fresh value on a fixed cadence and never touches the alarm
// pipeline's state; the heartbeat only signals that the process is alive.
type Sensor struct {
	// interval is the publication cadence.
	interval time.Duration
	// minValue and maxValue bound the simulated reading.
	minValue float64
	maxValue float64
	// mu protects value.
	mu sync.RWMutex
	// value is the current present value, in Celsius.
	value float64
}

// New creates the sensor from validated configuration.
// The initial value is the middle of the configured range.
func New(cfg *config.SensorConfig) *Sensor {
	s := &Sensor{
		interval: cfg.HeartbeatInterval,
		minValue: cfg.MinTemperature,
		maxValue: cfg.MaxTemperature,
	}

	s.publish((cfg.MinTemperature + cfg.MaxTemperature) / 2)

	return s
}

// Current returns the latest published value.
func (s *Sensor) Current() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value
}

// Run publishes a new simulated value every heartbeat interval until the
// context is canceled. It runs independently of alarm intake and must never
// block it.
func (s *Sensor) Run(ctx context.Context) {
	ctx = logger.WithName(ctx, "sensor")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Temperature heartbeat stopped")

			return
		case <-ticker.C:
			value := s.next()
			s.publish(value)
			logger.DebugKV(ctx, "Temperature updated", "value", value)
		}
	}
}

// next draws a fresh bounded value, rounded to two decimals.
func (s *Sensor) next() float64 {
	value := s.minValue + rand.Float64()*(s.maxValue-s.minValue)

	return math.Round(value*100) / 100
}

// publish stores the value and mirrors it to the metrics gauge.
func (s *Sensor) publish(value float64) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	metrics.SetTemperature(value)
}
