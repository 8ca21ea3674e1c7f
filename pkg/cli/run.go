package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/skeletrack/skeletrack/internal/driver"
	"github.com/skeletrack/skeletrack/pkg/broadcast"
	"github.com/skeletrack/skeletrack/pkg/config"
	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/notifier"
	"github.com/skeletrack/skeletrack/pkg/process"
	"github.com/skeletrack/skeletrack/pkg/recorder"
	"github.com/skeletrack/skeletrack/pkg/trace"
	"github.com/skeletrack/skeletrack/pkg/utils"
)

// statsInterval is how often a running session logs its counters
const statsInterval = 30 * time.Second

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track users until interrupted",
		Long: `Initialize the engine, create a user tracker and print every frame's users
until interrupted. New users are announced and skeleton tracking is started
for them; known users have their skeleton printed.

Frames can additionally be recorded to a file, broadcast over UDP and turned
into desktop notifications.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runSession(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("engine", config.DefaultEngine, "tracking engine: sim, replay or nite")
	flags.String("replay", "", "recording to play back (implies --engine replay)")
	flags.String("record", "", "record frames to this file")
	flags.String("compression", "zstd", "compression for recordings and broadcasts: zstd, lz4 or none")
	flags.String("broadcast", "", "publish frames to this UDP address, e.g. 239.7.7.7:7007")
	flags.Bool("notify", false, "send a desktop notification when a user appears")
	flags.Int("users", 2, "number of simulated users")
	flags.Int64("seed", 0, "simulator random seed")
	flags.Int("fps", 30, "simulator frame rate")

	c.bindFlags(flags, map[string]string{
		"engine":                "engine",
		"replay":                "replay",
		"record":                "record",
		"compression":           "compression",
		"broadcast":             "broadcast",
		"notifications.enabled": "notify",
		"simulator.users":       "users",
		"simulator.seed":        "seed",
		"simulator.fps":         "fps",
	})

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("replay") && !cmd.Flags().Changed("engine") {
			c.viper.Set("engine", config.EngineReplay)
		}
	}
	return cmd
}

// bindFlags binds each config key to the named flag
func (c *CLI) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = c.viper.BindPFlag(key, flags.Lookup(name))
	}
}

func (c *CLI) consoleColored() bool {
	return c.output == io.Writer(os.Stdout) && !color.NoColor
}

// runSession assembles the engine, observers and signal handling around one
// driver session.
func (c *CLI) runSession(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	runtime := nite.NewRuntime(engine, c.logger)
	session := driver.NewSession(runtime, driver.NewConsole(c.output, c.consoleColored()), c.logger)

	ctx := trace.NewSession(parent, engine.Name())
	log := logger.WithContext(ctx, c.logger.WithTarget("cli"))

	if cfg.Record != "" {
		rec, err := recorder.Create(cfg.Record, recorder.Header{
			SessionID: trace.SessionID(ctx),
			Engine:    engine.Name(),
			CreatedAt: time.Now(),
		}, cfg.CompressionTag())
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error("Failed to finish recording", logger.WithField("error", err))
				return
			}
			fields := []logger.Field{
				logger.WithField("path", cfg.Record),
				logger.WithField("frames", rec.Frames()),
			}
			if size, err := utils.FileSize(cfg.Record); err == nil {
				fields = append(fields, logger.WithField("size", utils.FormatBytes(size)))
			}
			log.Info("Recording saved", fields...)
		}()
		session.AddObserver(rec)
	}

	if cfg.Broadcast != "" {
		pub, err := broadcast.NewPublisher(cfg.Broadcast, cfg.CompressionTag(), c.logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		session.AddObserver(pub)
		log.Info("Broadcasting frames", logger.WithField("address", cfg.Broadcast))
	}

	if cfg.Notifications.Enabled {
		session.AddObserver(notifier.New(cfg.Notifications, c.logger))
	}

	if path := c.viper.ConfigFileUsed(); path != "" {
		reloader := config.NewReloader(path, c.logger)
		reloader.OnReload(config.ApplyLogLevel(c.logger))
		if err := reloader.Start(); err != nil {
			log.Warn("Configuration reload disabled", logger.WithField("error", err))
		} else {
			defer reloader.Stop()
		}
	}

	pm := process.NewManager(c.logger)
	pm.SetHeartbeat(statsInterval, func() {
		stats := session.Stats()
		log.Debug("Session progress",
			logger.WithField("frames", stats.Frames),
			logger.WithField("users_appeared", stats.UsersAppeared))
	})
	pm.RegisterShutdownHandler(func() {
		log.Info("Stopping session", logger.WithField("frames", session.Stats().Frames))
	})
	ctx = pm.Start(ctx)
	defer pm.Stop()

	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("%s engine: %w", engine.Name(), err)
	}
	return nil
}
