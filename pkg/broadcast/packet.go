package broadcast

import (
	"errors"
	"fmt"

	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/types"
)

const (
	// MaxPacketSize is the largest datagram payload that fits in one UDP packet
	MaxPacketSize = 65507

	// MaxFrameSize bounds the decompressed CBOR packet. A full scene of
	// tracked users encodes to a small fraction of it.
	MaxFrameSize = 1 << 20
)

var (
	// ErrPacketTooLarge is returned when an encoded frame exceeds MaxPacketSize
	ErrPacketTooLarge = errors.New("packet exceeds maximum datagram size")

	// ErrShortPacket is returned for datagrams without a payload
	ErrShortPacket = errors.New("short packet")
)

// Packet is one broadcast frame
type Packet struct {
	SessionID string      `cbor:"1,keyasint"`
	Frame     types.Frame `cbor:"2,keyasint"`
}

// Encode serializes p as one datagram: a compression tag byte followed by
// the compressed CBOR packet.
func Encode(p *Packet, tag codec.CompressionTag) ([]byte, error) {
	raw, err := codec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}
	if len(raw) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes before compression", ErrPacketTooLarge, len(raw))
	}
	payload, err := codec.Compress(raw, tag)
	if err != nil {
		return nil, err
	}
	if len(payload)+1 > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(payload)+1)
	}
	return append([]byte{byte(tag)}, payload...), nil
}

// Decode parses a datagram produced by Encode
func Decode(datagram []byte, p *Packet) error {
	if len(datagram) < 2 {
		return ErrShortPacket
	}
	raw, err := codec.Decompress(datagram[1:], codec.CompressionTag(datagram[0]), MaxFrameSize)
	if err != nil {
		return err
	}
	p.Frame.Reset()
	if err := codec.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("decode packet: %w", err)
	}
	return nil
}
