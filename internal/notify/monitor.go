package notify

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"earsaver/internal/audio"
	"earsaver/internal/volume"
)

// Monitor owns one notification registration with an Adapter behind it.
type Monitor struct {
	Adjuster *volume.Adjuster

	reg  audio.Registration
	once sync.Once
	err  error
}

// Start registers an Adapter on enum that keeps headphones at target.
func Start(enum audio.Enumerator, target float32, logger zerolog.Logger) (*Monitor, error) {
	adj, err := volume.NewAdjuster(enum, target)
	if err != nil {
		return nil, err
	}
	adapter := NewAdapter(audio.NewReader(enum), adj, logger)

	reg, err := enum.Register(adapter)
	if err != nil {
		return nil, fmt.Errorf("register for endpoint notifications: %w", err)
	}
	logger.Info().Float32("target_volume", target).Msg("Listening for audio endpoint changes")
	return &Monitor{Adjuster: adj, reg: reg}, nil
}

// Close unregisters the adapter. Events already queued are delivered first.
func (m *Monitor) Close() error {
	m.once.Do(func() {
		m.err = m.reg.Close()
	})
	return m.err
}
