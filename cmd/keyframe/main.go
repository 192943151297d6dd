// Package main is the keyframe command line tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/keyframe/animation"
	"go.viam.com/keyframe/config"
	"go.viam.com/keyframe/keyframe"
	"go.viam.com/keyframe/logging"
	"go.viam.com/keyframe/referenceframe"
	"go.viam.com/keyframe/spatialmath"
)

const (
	// Flags.
	flagConfig   = "config"
	flagFormat   = "format"
	flagDebug    = "debug"
	flagLogFile  = "log-file"
	flagLogLevel = "log-level"
	flagMode     = "mode"
	flagOut      = "out"
	flagRealtime = "realtime"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var (
		logger       logging.Logger
		fileAppender *logging.FileAppender
	)

	return &cli.App{
		Name:  "keyframe",
		Usage: "inspect and play back keyframe animations of a pose hierarchy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "load scene configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging; same as --log-level debug",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "minimum `LEVEL` logged: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated every 10MB",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				level = logging.DEBUG
			}
			logger = logging.NewLogger("keyframe", level)
			if path := c.String(flagLogFile); path != "" {
				fileAppender = logging.NewFileAppender(path, 10)
				logger.AddAppender(fileAppender)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			//nolint:errcheck
			logger.Sync()
			if fileAppender != nil {
				return fileAppender.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "frames",
				Usage: "print the hierarchy and every keyframe",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagFormat,
						Value: formatPose,
						Usage: "how keyframe poses are printed: pose, matrix or dualquat",
					},
				},
				Action: func(c *cli.Context) error {
					return framesAction(c, logger)
				},
			},
			{
				Name:  "play",
				Usage: "play the keyframes through the hierarchy",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagMode,
						Usage: "interpolation mode, linear or cubic; overrides the config",
					},
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "write the pose of every tick to `FILE` as keyframes",
					},
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "tick at the configured frame rate instead of as fast as possible",
					},
				},
				Action: func(c *cli.Context) error {
					return playAction(c, logger)
				},
			},
			{
				Name:  "validate",
				Usage: "check the config and its keyframe file",
				Action: func(c *cli.Context) error {
					return validateAction(c, logger)
				},
			},
			{
				Name:  "watch",
				Usage: "validate the config again every time it changes",
				Action: func(c *cli.Context) error {
					return watchAction(c, logger)
				},
			},
		},
	}
}

type scene struct {
	cfg *config.Config
	h   *referenceframe.PoseHierarchy
	seq *keyframe.Sequence
}

func loadScene(c *cli.Context, logger logging.Logger) (*scene, error) {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	h, err := cfg.BuildHierarchy()
	if err != nil {
		return nil, err
	}
	seq, err := keyframe.NewSequenceFromHierarchy(h, logger.Sublogger("sequence"))
	if err != nil {
		return nil, err
	}
	if path := cfg.KeyframePath(); path != "" {
		if err := seq.ImportFrom(path); err != nil {
			return nil, err
		}
	}
	return &scene{cfg: cfg, h: h, seq: seq}, nil
}

func framesAction(c *cli.Context, logger logging.Logger) error {
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, s.h.String())
	if s.seq.Empty() {
		fmt.Fprintln(c.App.Writer, "no keyframes")
		return nil
	}

	format := c.String(flagFormat)
	t := table.NewWriter()
	switch format {
	case formatPose:
		t.AppendHeader(table.Row{"Frame", "Node", "Translation", "Rotation"})
	case formatMatrix, formatDualQuat:
		t.AppendHeader(table.Row{"Frame", "Node", "Transform"})
	default:
		return errors.Errorf("unknown pose format %q", format)
	}
	nodes := s.seq.Nodes()
	for i := 0; i < s.seq.Len(); i++ {
		frame, err := s.seq.Frame(i)
		if err != nil {
			return err
		}
		for idx, pose := range frame {
			name, err := s.h.Name(nodes[idx])
			if err != nil {
				return err
			}
			t.AppendRow(append(table.Row{i, name}, poseCells(pose, format)...))
		}
		t.AppendSeparator()
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	fmt.Fprintln(c.App.Writer, s.seq.String())
	return nil
}

const (
	formatPose     = "pose"
	formatMatrix   = "matrix"
	formatDualQuat = "dualquat"
)

// poseCells renders pose as the table cells of format.
func poseCells(pose spatialmath.RigidTransform, format string) table.Row {
	switch format {
	case formatMatrix:
		m := pose.Matrix()
		rows := make([]string, 4)
		for r := range rows {
			rows[r] = fmt.Sprintf("%8.3f %8.3f %8.3f %8.3f", m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3))
		}
		return table.Row{strings.Join(rows, "\n")}
	case formatDualQuat:
		dq := pose.DualQuaternion()
		return table.Row{fmt.Sprintf("real: (%.3f, %.3f, %.3f, %.3f) dual: (%.3f, %.3f, %.3f, %.3f)",
			dq.Real.Real, dq.Real.Imag, dq.Real.Jmag, dq.Real.Kmag,
			dq.Dual.Real, dq.Dual.Imag, dq.Dual.Jmag, dq.Dual.Kmag)}
	default:
		tr := pose.Translation()
		return table.Row{
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", tr.X, tr.Y, tr.Z),
			spatialmath.QuatToR4AA(pose.Rotation()).String(),
		}
	}
}

func playAction(c *cli.Context, logger logging.Logger) error {
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	if c.IsSet(flagMode) {
		s.cfg.Playback.Mode = c.String(flagMode)
	}
	mode, err := s.cfg.Playback.AnimationMode()
	if err != nil {
		return err
	}
	delta, err := s.cfg.Playback.Delta()
	if err != nil {
		return err
	}

	var baked *keyframe.Sequence
	if c.IsSet(flagOut) {
		baked, err = keyframe.NewSequence(s.h, s.seq.Nodes(), logger.Sublogger("bake"))
		if err != nil {
			return err
		}
	}
	segments := 0
	onTick := func(res animation.TickResult) {
		if baked != nil && res != animation.CannotContinue {
			baked.Snapshot()
		}
		if res == animation.SegmentComplete {
			segments++
			logger.Infow("reached keyframe", "frame", s.seq.Cursor(), "frames", s.seq.Len())
		}
	}

	player := animation.NewPlayer(s.seq, mode, logger.Sublogger("player"))
	var ticks int
	if c.Bool(flagRealtime) {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		driver, err := animation.NewDriver(
			player, clock.New(), s.cfg.Playback.FramesPerSecond, delta, logger.Sublogger("driver"))
		if err != nil {
			return err
		}
		driver.OnTick = onTick
		ticks, err = driver.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	} else {
		ticks, err = playUnpaced(player, delta, onTick)
		if err != nil {
			return err
		}
	}
	logger.Infow("playback finished", "mode", mode, "ticks", ticks, "segments", segments)

	if baked != nil {
		return baked.ExportTo(c.String(flagOut))
	}
	return nil
}

func playUnpaced(player *animation.Player, delta float64, onTick func(animation.TickResult)) (int, error) {
	if !player.Restart() {
		return 0, errors.Errorf("cannot start playback, need at least %d keyframes", animation.MinFrames)
	}
	for ticks := 1; ; ticks++ {
		res, err := player.Tick(delta)
		if err != nil {
			return ticks, err
		}
		onTick(res)
		if res == animation.CannotContinue {
			return ticks, nil
		}
	}
}

func validateAction(c *cli.Context, logger logging.Logger) error {
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "config ok: %d nodes, %d keyframes, %s playback\n",
		s.seq.NodeCount(), s.seq.Len(), s.cfg.Playback.Mode)
	return nil
}

func watchAction(c *cli.Context, logger logging.Logger) error {
	if err := validateAction(c, logger); err != nil {
		logger.Warnw("current config is invalid", "error", err)
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	err := config.Watch(ctx, c.String(flagConfig), logger.Sublogger("watch"), func(*config.Config) {
		if err := validateAction(c, logger); err != nil {
			logger.Warnw("config changed but keyframes are invalid", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
