// Package broadcast publishes frames as UDP datagrams, usually to a
// multicast group, and receives them on the other side.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/trace"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// Publisher sends every frame read by a session as one datagram
type Publisher struct {
	conn   *net.UDPConn
	tag    codec.CompressionTag
	logger logger.Logger
	packet Packet
}

// NewPublisher dials addr ("host:port")
func NewPublisher(addr string, tag codec.CompressionTag, log logger.Logger) (*Publisher, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: %d", codec.ErrUnknownCompression, tag)
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve broadcast address: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("could not dial udp address: %w", err)
	}
	_ = conn.SetWriteBuffer(MaxPacketSize)

	return &Publisher{
		conn:   conn,
		tag:    tag,
		logger: log.WithTarget("broadcast"),
	}, nil
}

// FrameRead publishes the frame. Oversized frames are dropped with a
// warning.
func (p *Publisher) FrameRead(ctx context.Context, frame *types.Frame) error {
	p.packet.SessionID = trace.SessionID(ctx)
	frame.CopyTo(&p.packet.Frame)

	datagram, err := Encode(&p.packet, p.tag)
	if errors.Is(err, ErrPacketTooLarge) {
		p.logger.Warn("Dropping frame",
			logger.WithField("frame", frame.Index),
			logger.WithField("error", err))
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := p.conn.Write(datagram); err != nil {
		return fmt.Errorf("send frame %d: %w", frame.Index, err)
	}
	return nil
}

// UserAppeared is a no-op; appearances travel inside the frame
func (p *Publisher) UserAppeared(context.Context, *types.Frame, *types.User) error {
	return nil
}

// SkeletonRead is a no-op; skeletons travel inside the frame
func (p *Publisher) SkeletonRead(context.Context, *types.Frame, *types.User) error {
	return nil
}

// Close closes the socket
func (p *Publisher) Close() error {
	return p.conn.Close()
}
