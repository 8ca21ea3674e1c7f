package recorder_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/recorder"
	"github.com/skeletrack/skeletrack/pkg/types"
)

func sampleFrames() []types.Frame {
	tracked := types.User{ID: 7, State: types.UserVisible, CenterOfMass: r3.Vector{X: 10, Y: 900, Z: 2500}}
	tracked.Skeleton.State = types.SkeletonTracked
	tracked.Skeleton.Joints[types.JointHead] = types.Joint{
		Type:               types.JointHead,
		Position:           r3.Vector{X: 12, Y: 1600, Z: 2480},
		PositionConfidence: 1,
		Orientation:        types.IdentityQuaternion,
	}

	return []types.Frame{
		{Index: 1, Timestamp: 33333, Users: []types.User{}},
		{Index: 2, Timestamp: 66666, Users: []types.User{{ID: 7, State: types.UserVisible | types.UserNew}}},
		{Index: 3, Timestamp: 99999, Users: []types.User{tracked}},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tag := range []codec.CompressionTag{codec.CompressionNone, codec.CompressionZstd, codec.CompressionLZ4} {
		t.Run(tag.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.skr")
			header := recorder.Header{
				SessionID: "ses_test",
				Engine:    "simulator",
				CreatedAt: time.Unix(1700000000, 0),
			}

			rec, err := recorder.Create(path, header, tag)
			require.NoError(t, err)

			frames := sampleFrames()
			for i := range frames {
				require.NoError(t, rec.FrameRead(context.Background(), &frames[i]))
			}
			assert.Equal(t, uint64(len(frames)), rec.Frames())
			require.NoError(t, rec.Close())
			require.NoError(t, rec.Close())

			reader, err := recorder.Open(path)
			require.NoError(t, err)
			defer reader.Close()

			got := reader.Header()
			assert.Equal(t, header.SessionID, got.SessionID)
			assert.Equal(t, header.Engine, got.Engine)
			assert.Equal(t, header.CreatedAt.Unix(), got.CreatedAt.Unix())
			assert.Equal(t, tag, reader.Compression())

			var frame types.Frame
			for i, want := range frames {
				require.NoError(t, reader.Next(&frame), "frame %d", i)
				if diff := cmp.Diff(want.Users, frame.Users, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("frame %d mismatch (-want +got):\n%s", i, diff)
				}
				assert.Equal(t, want.Index, frame.Index)
				assert.Equal(t, want.Timestamp, frame.Timestamp)
			}
			assert.ErrorIs(t, reader.Next(&frame), io.EOF)
		})
	}
}

func TestWriteAfterClose(t *testing.T) {
	rec, err := recorder.Create(filepath.Join(t.TempDir(), "closed.skr"), recorder.Header{}, codec.CompressionNone)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	assert.ErrorIs(t, rec.Write(&types.Frame{}), recorder.ErrClosed)
}

func TestCreateUnknownCompression(t *testing.T) {
	_, err := recorder.Create(filepath.Join(t.TempDir(), "x.skr"), recorder.Header{}, codec.CompressionTag(9))
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)
}

func TestOpenRejectsForeignFiles(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    error
	}{
		{"empty", nil, recorder.ErrBadMagic},
		{"wrong magic", []byte("PNG\x00\x01\x00"), recorder.ErrBadMagic},
		{"future version", []byte("SKRC\x09\x00"), recorder.ErrUnsupportedVersion},
		{"unknown compression", []byte("SKRC\x01\x07"), codec.ErrUnknownCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.skr")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			_, err := recorder.Open(path)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := recorder.Open(filepath.Join(t.TempDir(), "missing.skr"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
