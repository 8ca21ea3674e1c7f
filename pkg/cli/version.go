package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(c.output, "skeletrack %s (%s, %s/%s, engines: %s)\n",
				c.options.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH, availableEngines())
			return nil
		},
	}
}
