package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skeletrack/skeletrack/internal/syncgroup"
	"github.com/skeletrack/skeletrack/pkg/broadcast"
	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/process"
)

// DefaultListenAddress is the multicast group used when none is given
const DefaultListenAddress = "239.7.7.7:7007"

func (c *CLI) newListenCmd() *cobra.Command {
	var users bool

	cmd := &cobra.Command{
		Use:   "listen [address]",
		Short: "Print frames broadcast by another skeletrack",
		Long: `Join the broadcast group and print received frames until interrupted.
The address defaults to the broadcast setting, or ` + DefaultListenAddress + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := c.viper.GetString("broadcast")
			if len(args) > 0 {
				addr = args[0]
			}
			if addr == "" {
				addr = DefaultListenAddress
			}

			pm := process.NewManager(c.logger)
			ctx := pm.Start(cmd.Context())
			defer pm.Stop()

			return c.listen(ctx, addr, users)
		},
	}

	cmd.Flags().BoolVar(&users, "users", true, "print one line per user instead of one per frame")
	return cmd
}

func (c *CLI) listen(ctx context.Context, addr string, perUser bool) error {
	client, err := broadcast.Listen(addr, c.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	c.logger.Info("Listening for frames", logger.WithField("address", client.Addr().String()))

	packets := make(chan broadcast.Packet, 64)
	group, gctx := syncgroup.New(ctx, c.logger)

	group.Go(func() error {
		defer close(packets)
		return client.Run(gctx, func(ctx context.Context, p *broadcast.Packet) error {
			var copied broadcast.Packet
			copied.SessionID = p.SessionID
			p.Frame.CopyTo(&copied.Frame)

			select {
			case packets <- copied:
			case <-ctx.Done():
			default:
				c.logger.Debug("Printer is behind, dropping frame", logger.WithField("frame", p.Frame.Index))
			}
			return nil
		})
	})

	group.Go(func() error {
		for p := range packets {
			c.printPacket(&p, perUser)
		}
		return nil
	})

	return group.Wait()
}

func (c *CLI) printPacket(p *broadcast.Packet, perUser bool) {
	if !perUser {
		fmt.Fprintf(c.output, "[%s] frame %d: %d users\n", p.SessionID, p.Frame.Index, len(p.Frame.Users))
		return
	}
	for i := range p.Frame.Users {
		u := &p.Frame.Users[i]
		fmt.Fprintf(c.output, "[%s] frame %d user %d (%s): %s\n",
			p.SessionID, p.Frame.Index, u.ID, u.State, u.Skeleton)
	}
}
