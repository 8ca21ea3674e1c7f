// Package cli provides the command-line interface for skeletrack
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skeletrack/skeletrack/pkg/config"
	"github.com/skeletrack/skeletrack/pkg/logger"
)

// CLI wires the cobra command tree to its settings and output streams.
// Each CLI owns its own viper instance.
type CLI struct {
	options  *Options
	viper    *viper.Viper
	rootCmd  *cobra.Command
	logger   logger.Logger
	output   io.Writer
	errorOut io.Writer
}

// NewCLI creates a new CLI instance with the given options
func NewCLI(options *Options) *CLI {
	if options == nil {
		options = NewOptions()
	}

	cli := &CLI{
		options:  options,
		viper:    config.NewViper(),
		logger:   logger.Discard(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}

	cli.setupCommands()
	return cli
}

// NewCLIWithOutput creates a CLI with custom output writers
func NewCLIWithOutput(options *Options, output, errorOut io.Writer) *CLI {
	cli := NewCLI(options)
	cli.output = output
	cli.errorOut = errorOut
	cli.rootCmd.SetOut(output)
	cli.rootCmd.SetErr(errorOut)
	return cli
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "skeletrack",
		Short: "Skeleton tracking session driver",
		Long: `skeletrack drives a skeleton tracking engine: it initializes the engine,
polls user frames until interrupted, announces new users, starts skeleton
tracking for them and prints their skeletons. Invoked without a command it
does exactly that until interrupted; run adds flags for the engine,
recording, broadcasting and notifications.`,

		PersistentPreRunE: c.initializeConfig,
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		// Without a subcommand, track users with the configured engine
		// until interrupted, exactly like run without flags.
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runSession(cmd.Context(), cfg)
		},
	}

	c.setupFlags()

	c.rootCmd.Version = c.options.Version
	c.rootCmd.SetVersionTemplate("skeletrack {{.Version}}\n")

	c.rootCmd.AddCommand(c.newRunCmd())
	c.rootCmd.AddCommand(c.newListenCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()

	flags.StringVar(&c.options.ConfigFile, "config", "", "config file (default: ./"+config.FileName+")")
	flags.StringVarP(&c.options.Verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&c.options.LogFile, "log-file", "", "also write logs to this file")

	_ = c.viper.BindPFlag("log.level", flags.Lookup("verbosity"))
	_ = c.viper.BindPFlag("log.file", flags.Lookup("log-file"))
}

func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	if c.options.ConfigFile != "" {
		c.viper.SetConfigFile(c.options.ConfigFile)
		c.viper.SetConfigType("yaml")
		if err := c.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	} else {
		c.viper.AddConfigPath(".")
		c.viper.SetConfigName("skeletrack")
		c.viper.SetConfigType("yaml")

		var notFound viper.ConfigFileNotFoundError
		if err := c.viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	}

	level := c.viper.GetString("log.level")
	logFile := c.viper.GetString("log.file")
	if c.errorOut == os.Stderr {
		c.logger = logger.CreateLogger(logFile, level)
	} else {
		c.logger = logger.CreateLoggerWithOutput(logFile, level, c.errorOut)
	}

	if used := c.viper.ConfigFileUsed(); used != "" {
		c.logger.Debug("Using config file", logger.WithField("file", used))
	}
	return nil
}

// loadConfig decodes and validates the merged flags, environment, file and
// defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.NewManager().Load(c.viper)
}

// ExecuteWithVersion runs the CLI on os.Args
func ExecuteWithVersion(version string) error {
	options := NewOptions()
	options.Version = version
	return NewCLI(options).Execute(os.Args[1:])
}
