package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skeletrack/skeletrack/pkg/config"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var force bool
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write ` + config.FileName + ` with the built-in defaults. Every key in the
file can also be set through SKELETRACK_* environment variables.`,
		Args: cobra.NoArgs,
		// The file may not exist yet, so skip loading it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.options.ConfigFile
			if path == "" {
				path = filepath.Join(dir, config.FileName)
			}
			if err := config.NewManager().WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(c.output, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the file to")
	return cmd
}
