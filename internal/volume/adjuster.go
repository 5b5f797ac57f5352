// Package volume lowers the output level of headphone-class endpoints.
package volume

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"earsaver/internal/audio"
)

// DefaultTarget is the master scalar applied to headphones and headsets.
const DefaultTarget float32 = 0.1

// Summary counts what one AdjustAll pass did.
type Summary struct {
	Seen     int
	Matched  int
	Adjusted int
	Failed   int
}

func (s Summary) String() string {
	return fmt.Sprintf("seen=%d matched=%d adjusted=%d failed=%d", s.Seen, s.Matched, s.Adjusted, s.Failed)
}

// Adjuster sets every active headphone or headset endpoint to a fixed level.
// AdjustAll runs are serialized.
type Adjuster struct {
	enum audio.Enumerator

	mu     sync.Mutex
	target float32
}

func NewAdjuster(enum audio.Enumerator, target float32) (*Adjuster, error) {
	if err := validTarget(target); err != nil {
		return nil, err
	}
	return &Adjuster{enum: enum, target: target}, nil
}

// Target returns the level the next AdjustAll pass applies.
func (a *Adjuster) Target() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// SetTarget changes the applied level. It waits for a running pass to finish.
func (a *Adjuster) SetTarget(target float32) error {
	if err := validTarget(target); err != nil {
		return err
	}
	a.mu.Lock()
	a.target = target
	a.mu.Unlock()
	return nil
}

// AdjustAll enumerates active render endpoints and sets the master volume of
// each headphone or headset to the target. A failure on one device is logged
// and the pass continues with the next. The logger is taken from ctx.
func (a *Adjuster) AdjustAll(ctx context.Context) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	var sum Summary

	devices, err := a.enum.Devices(audio.FlowRender, audio.StateActive)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to enumerate active output devices")
		return sum
	}

	for _, dev := range devices {
		sum.Seen++
		matched, err := a.adjust(dev, logger)
		if matched {
			sum.Matched++
		}
		if err != nil {
			sum.Failed++
			continue
		}
		if matched {
			sum.Adjusted++
		}
	}

	logger.Debug().Int("seen", sum.Seen).Int("matched", sum.Matched).Int("adjusted", sum.Adjusted).Int("failed", sum.Failed).Msg("Volume pass finished")
	return sum
}

// adjust handles one device and releases it before returning.
func (a *Adjuster) adjust(dev audio.Device, logger *zerolog.Logger) (bool, error) {
	defer dev.Release()

	id, _ := dev.ID()
	l := logger.With().Str("device_id", id).Logger()

	ff, err := audio.DeviceFormFactor(dev)
	if err != nil {
		l.Warn().Err(err).Msg("Skipping device, form factor unreadable")
		return false, err
	}
	if !ff.IsHeadphoneClass() {
		l.Trace().Stringer("form_factor", ff).Msg("Not a headphone-class device")
		return false, nil
	}

	vol, err := dev.ActivateVolume()
	if err != nil {
		l.Warn().Err(err).Stringer("form_factor", ff).Msg("Skipping device, volume control unavailable")
		return true, err
	}
	defer vol.Release()

	if err := vol.SetMasterScalar(a.target); err != nil {
		l.Warn().Err(err).Stringer("form_factor", ff).Msg("Failed to set master volume")
		return true, err
	}

	l.Info().Stringer("form_factor", ff).Float32("volume", a.target).Msg("Master volume set")
	return true, nil
}

func validTarget(target float32) error {
	if math.IsNaN(float64(target)) || target < 0 || target > 1 {
		return fmt.Errorf("target volume %v outside [0, 1]", target)
	}
	return nil
}
