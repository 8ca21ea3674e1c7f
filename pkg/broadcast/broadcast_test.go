package broadcast_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skeletrack/skeletrack/pkg/broadcast"
	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/trace"
	"github.com/skeletrack/skeletrack/pkg/types"
)

func samplePacket() *broadcast.Packet {
	return &broadcast.Packet{
		SessionID: "ses_broadcast",
		Frame: types.Frame{
			Index:     12,
			Timestamp: 400000,
			Users: []types.User{
				{ID: 1, State: types.UserVisible | types.UserNew, CenterOfMass: r3.Vector{X: 1, Y: 2, Z: 3}},
			},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, tag := range []codec.CompressionTag{codec.CompressionNone, codec.CompressionZstd, codec.CompressionLZ4} {
		t.Run(tag.String(), func(t *testing.T) {
			want := samplePacket()
			datagram, err := broadcast.Encode(want, tag)
			require.NoError(t, err)
			assert.Equal(t, byte(tag), datagram[0])

			var got broadcast.Packet
			require.NoError(t, broadcast.Decode(datagram, &got))
			if diff := cmp.Diff(want, &got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("packet mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeTooLarge(t *testing.T) {
	p := samplePacket()
	p.SessionID = strings.Repeat("x", broadcast.MaxPacketSize)

	_, err := broadcast.Encode(p, codec.CompressionNone)
	assert.ErrorIs(t, err, broadcast.ErrPacketTooLarge)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var p broadcast.Packet
	assert.ErrorIs(t, broadcast.Decode([]byte{0}, &p), broadcast.ErrShortPacket)
	assert.ErrorIs(t, broadcast.Decode([]byte{9, 1, 2}, &p), codec.ErrUnknownCompression)
	assert.Error(t, broadcast.Decode([]byte{0, 0x1c}, &p))
}

func TestPublishAndReceive(t *testing.T) {
	client, err := broadcast.Listen("127.0.0.1:0", logger.Discard())
	require.NoError(t, err)
	defer client.Close()

	pub, err := broadcast.NewPublisher(client.Addr().String(), codec.CompressionZstd, logger.Discard())
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan broadcast.Packet, 8)
	done := make(chan error, 1)
	go func() {
		done <- client.Run(ctx, func(_ context.Context, p *broadcast.Packet) error {
			var copied broadcast.Packet
			copied.SessionID = p.SessionID
			p.Frame.CopyTo(&copied.Frame)
			received <- copied
			return nil
		})
	}()

	sctx := trace.WithSessionID(context.Background(), "ses_live")
	for i := 1; i <= 3; i++ {
		require.NoError(t, pub.FrameRead(sctx, &types.Frame{Index: i}))
	}

	for i := 1; i <= 3; i++ {
		select {
		case p := <-received:
			assert.Equal(t, "ses_live", p.SessionID)
			assert.Equal(t, i, p.Frame.Index)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop after cancel")
	}
}

func TestPublisherDropsOversizedFrames(t *testing.T) {
	var logs bytes.Buffer
	pub, err := broadcast.NewPublisher("127.0.0.1:9", codec.CompressionNone,
		logger.CreateLoggerWithOutput("", "warn", &logs))
	require.NoError(t, err)
	defer pub.Close()

	huge := trace.WithSessionID(context.Background(), strings.Repeat("y", broadcast.MaxPacketSize))
	require.NoError(t, pub.FrameRead(huge, &types.Frame{Index: 99}))
	assert.Contains(t, logs.String(), "Dropping frame")
}

func TestNewPublisherRejectsUnknownCompression(t *testing.T) {
	_, err := broadcast.NewPublisher("127.0.0.1:9", codec.CompressionTag(5), logger.Discard())
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)
}

func TestDecodeRejectsDecompressionBomb(t *testing.T) {
	payload, err := codec.Compress(make([]byte, 2*broadcast.MaxFrameSize), codec.CompressionZstd)
	require.NoError(t, err)
	datagram := append([]byte{byte(codec.CompressionZstd)}, payload...)
	require.Less(t, len(datagram), broadcast.MaxPacketSize)

	var p broadcast.Packet
	err = broadcast.Decode(datagram, &p)
	assert.ErrorIs(t, err, codec.ErrTooLarge)
}
