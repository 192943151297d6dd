package animation

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/keyframe/logging"
)

// Driver ticks a player at a fixed rate until playback finishes.
type Driver struct {
	player   *Player
	clock    clock.Clock
	interval time.Duration
	delta    float64
	logger   logging.Logger

	// OnTick, if set, is called after every tick that did not fail.
	OnTick func(TickResult)
}

// NewDriver returns a driver that ticks player framesPerSecond times a second by delta on clk.
func NewDriver(player *Player, clk clock.Clock, framesPerSecond int, delta float64, logger logging.Logger) (*Driver, error) {
	if framesPerSecond <= 0 {
		return nil, errors.Errorf("frames per second must be positive, got %d", framesPerSecond)
	}
	if !(delta >= 0 && delta < 1) {
		return nil, errors.Wrapf(ErrInvalidDelta, "got %v", delta)
	}
	return &Driver{
		player:   player,
		clock:    clk,
		interval: time.Second / time.Duration(framesPerSecond),
		delta:    delta,
		logger:   logger,
	}, nil
}

// Interval returns the time between ticks.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Run restarts the player and ticks it until a tick reports CannotContinue, a tick fails, or ctx is done.
// It returns the number of ticks taken.
func (d *Driver) Run(ctx context.Context) (int, error) {
	if !d.player.Restart() {
		return 0, errors.Errorf("cannot start playback, need at least %d keyframes", MinFrames)
	}

	ticker := d.clock.Ticker(d.interval)
	defer ticker.Stop()
	ticks := 0
	for {
		if err := ctx.Err(); err != nil {
			d.player.Stop()
			return ticks, err
		}

		select {
		case <-ctx.Done():
			d.player.Stop()
			return ticks, ctx.Err()
		case <-ticker.C:
			res, err := d.player.Tick(d.delta)
			if err != nil {
				return ticks, errors.Wrap(err, "playback tick failed")
			}
			ticks++
			if d.OnTick != nil {
				d.OnTick(res)
			}
			if res == CannotContinue {
				d.logger.Debugf("playback finished after %d ticks", ticks)
				return ticks, nil
			}
		}
	}
}
