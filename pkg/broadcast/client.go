package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/skeletrack/skeletrack/pkg/logger"
)

// Handler receives decoded packets. The packet is reused after the handler
// returns.
type Handler func(ctx context.Context, p *Packet) error

// Client receives frames published by a Publisher
type Client struct {
	conn   *net.UDPConn
	logger logger.Logger
}

// Listen joins the multicast group at addr. A unicast address is bound
// directly, which is what tests and point-to-point setups use.
func Listen(addr string, log logger.Logger) (*Client, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve broadcast address: %w", err)
	}

	var conn *net.UDPConn
	if udpAddr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp4", nil, udpAddr)
	} else {
		conn, err = net.ListenUDP("udp4", udpAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	_ = conn.SetReadBuffer(MaxPacketSize)

	return &Client{
		conn:   conn,
		logger: log.WithTarget("broadcast"),
	}, nil
}

// Addr returns the bound local address
func (c *Client) Addr() net.Addr {
	return c.conn.LocalAddr()
}

// Run delivers packets to fn until ctx is cancelled or fn fails.
// Undecodable datagrams are skipped. Cancellation returns nil.
func (c *Client) Run(ctx context.Context, fn Handler) error {
	stop := context.AfterFunc(ctx, func() {
		c.conn.Close()
	})
	defer stop()

	buf := make([]byte, MaxPacketSize)
	var packet Packet

	for {
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		if err := Decode(buf[:n], &packet); err != nil {
			c.logger.Warn("Dropping undecodable packet",
				logger.WithField("bytes", n),
				logger.WithField("error", err))
			continue
		}
		if err := fn(ctx, &packet); err != nil {
			return err
		}
	}
}

// Close releases the socket
func (c *Client) Close() error {
	err := c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
