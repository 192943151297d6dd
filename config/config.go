// Package config defines the scene file: the pose hierarchy to animate, how to play it back, and where its
// keyframes are stored.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/keyframe/animation"
	"go.viam.com/keyframe/referenceframe"
)

// Playback defaults.
const (
	DefaultMode               = "linear"
	DefaultMsBetweenKeyframes = 2000
	DefaultFramesPerSecond    = 60
)

// Config describes a scene.
type Config struct {
	Hierarchy    referenceframe.HierarchyConfig `json:"hierarchy"`
	Playback     PlaybackConfig                 `json:"playback"`
	KeyframeFile string                         `json:"keyframe_file,omitempty"`

	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// PlaybackConfig controls the animation player.
type PlaybackConfig struct {
	Mode               string `json:"mode,omitempty"`
	MsBetweenKeyframes int    `json:"ms_between_keyframes,omitempty"`
	FramesPerSecond    int    `json:"frames_per_second,omitempty"`
}

func (c *PlaybackConfig) applyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.MsBetweenKeyframes == 0 {
		c.MsBetweenKeyframes = DefaultMsBetweenKeyframes
	}
	if c.FramesPerSecond == 0 {
		c.FramesPerSecond = DefaultFramesPerSecond
	}
}

// Validate ensures all parts of the playback config are valid.
func (c *PlaybackConfig) Validate(path string) error {
	var errs error
	if _, err := animation.ParseMode(c.Mode); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, path+".mode"))
	}
	if c.MsBetweenKeyframes <= 0 {
		errs = multierr.Append(errs, newFieldError(path+".ms_between_keyframes", "must be positive, got %d", c.MsBetweenKeyframes))
	}
	if c.FramesPerSecond <= 0 {
		errs = multierr.Append(errs, newFieldError(path+".frames_per_second", "must be positive, got %d", c.FramesPerSecond))
	}
	return errs
}

// AnimationMode returns the parsed interpolation mode.
func (c *PlaybackConfig) AnimationMode() (animation.Mode, error) {
	return animation.ParseMode(c.Mode)
}

// Delta returns the progress per tick implied by the playback rate.
func (c *PlaybackConfig) Delta() (float64, error) {
	return animation.DeltaForRate(c.MsBetweenKeyframes, c.FramesPerSecond)
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var errs error
	if len(c.Hierarchy.Links) == 0 {
		errs = multierr.Append(errs, newFieldError("hierarchy.links", "at least one link is required"))
	}
	seen := make(map[string]int, len(c.Hierarchy.Links))
	for idx, link := range c.Hierarchy.Links {
		path := fmt.Sprintf("hierarchy.links.%d", idx)
		if link.ID == "" {
			errs = multierr.Append(errs, newFieldError(path+".id", "is required"))
			continue
		}
		if first, ok := seen[link.ID]; ok {
			errs = multierr.Append(errs, newFieldError(path+".id", "%q already used by link %d", link.ID, first))
			continue
		}
		seen[link.ID] = idx
		if o := link.Orientation; o != nil && o.Axis.Norm() == 0 {
			errs = multierr.Append(errs, newFieldError(path+".orientation.axis", "must be non-zero"))
		}
	}
	return multierr.Append(errs, c.Playback.Validate("playback"))
}

// BuildHierarchy creates the pose hierarchy described by the config.
func (c *Config) BuildHierarchy() (*referenceframe.PoseHierarchy, error) {
	return referenceframe.NewPoseHierarchyFromConfig(&c.Hierarchy)
}

// KeyframePath returns the keyframe file, resolved against the directory of the config file when relative.
// It is empty when no keyframe file is configured.
func (c *Config) KeyframePath() string {
	if c.KeyframeFile == "" || filepath.IsAbs(c.KeyframeFile) || c.ConfigFilePath == "" {
		return c.KeyframeFile
	}
	return filepath.Join(filepath.Dir(c.ConfigFilePath), c.KeyframeFile)
}

func newFieldError(path, format string, args ...interface{}) error {
	return errors.Errorf("%s: %s", path, fmt.Sprintf(format, args...))
}
