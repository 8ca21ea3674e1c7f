package codec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/types"
)

func sampleFrame() types.Frame {
	user := types.User{
		ID:           7,
		State:        types.UserVisible,
		CenterOfMass: r3.Vector{X: 12.5, Y: -40, Z: 2150},
	}
	user.Skeleton.State = types.SkeletonTracked
	for i := range user.Skeleton.Joints {
		user.Skeleton.Joints[i] = types.Joint{
			Type:               types.JointType(i),
			Position:           r3.Vector{X: float64(i), Y: float64(i * 10), Z: 2000},
			PositionConfidence: 0.9,
			Orientation:        types.IdentityQuaternion,
		}
	}
	return types.Frame{Index: 12, Timestamp: 400000, Users: []types.User{user}}
}

func TestMarshalDeterministic(t *testing.T) {
	frame := sampleFrame()

	a, err := codec.Marshal(frame)
	require.NoError(t, err)
	b, err := codec.Marshal(frame)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var decoded types.Frame
	require.NoError(t, codec.Unmarshal(a, &decoded))
	if diff := cmp.Diff(frame, decoded); diff != "" {
		t.Errorf("decoded frame mismatch (-want +got):\n%s", diff)
	}
}

func TestCompressionTags(t *testing.T) {
	tests := []struct {
		name string
		tag  codec.CompressionTag
	}{
		{"none", codec.CompressionNone},
		{"zstd", codec.CompressionZstd},
		{"lz4", codec.CompressionLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := codec.ParseCompressionTag(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, parsed)
			assert.Equal(t, tt.name, tt.tag.String())
			assert.True(t, tt.tag.Valid())

			payload := bytes.Repeat([]byte("skeleton "), 200)
			compressed, err := codec.Compress(payload, tt.tag)
			require.NoError(t, err)
			restored, err := codec.Decompress(compressed, tt.tag, 0)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)
		})
	}
}

func TestDecompressRejectsOversizedOutput(t *testing.T) {
	const limit = 64 << 10
	// Highly repetitive data compresses far below the limit it expands past.
	payload := bytes.Repeat([]byte{0}, 8*limit)

	for _, tag := range []codec.CompressionTag{codec.CompressionNone, codec.CompressionZstd, codec.CompressionLZ4} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, err := codec.Compress(payload, tag)
			require.NoError(t, err)
			if tag != codec.CompressionNone {
				assert.Less(t, len(compressed), limit)
			}

			_, err = codec.Decompress(compressed, tag, limit)
			assert.ErrorIs(t, err, codec.ErrTooLarge)

			restored, err := codec.Decompress(compressed, tag, len(payload))
			require.NoError(t, err)
			assert.Len(t, restored, len(payload))
		})
	}
}

func TestDecompressCapsAtMaximum(t *testing.T) {
	payload := make([]byte, codec.MaxDecompressedSize+1)
	compressed, err := codec.Compress(payload, codec.CompressionZstd)
	require.NoError(t, err)

	_, err = codec.Decompress(compressed, codec.CompressionZstd, 0)
	assert.ErrorIs(t, err, codec.ErrTooLarge)
}

func TestUnknownCompression(t *testing.T) {
	_, err := codec.ParseCompressionTag("brotli")
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)

	bogus := codec.CompressionTag(9)
	assert.False(t, bogus.Valid())
	assert.Equal(t, "unknown(9)", bogus.String())

	_, err = codec.Compress([]byte("x"), bogus)
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)
	_, err = codec.NewWriter(io.Discard, bogus)
	assert.ErrorIs(t, err, codec.ErrUnknownCompression)
}

func TestStreamRoundTrip(t *testing.T) {
	for _, tag := range []codec.CompressionTag{codec.CompressionNone, codec.CompressionZstd, codec.CompressionLZ4} {
		t.Run(tag.String(), func(t *testing.T) {
			var buf bytes.Buffer

			w, err := codec.NewWriter(&buf, tag)
			require.NoError(t, err)
			enc := codec.NewEncoder(w)
			frames := []types.Frame{sampleFrame(), {Index: 13}, sampleFrame()}
			for _, f := range frames {
				require.NoError(t, enc.Encode(f))
			}
			require.NoError(t, w.Close())

			r, err := codec.NewReader(&buf, tag)
			require.NoError(t, err)
			defer r.Close()

			dec := codec.NewDecoder(r)
			var got []types.Frame
			for {
				var f types.Frame
				err := dec.Decode(&f)
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				got = append(got, f)
			}
			require.Len(t, got, len(frames))
			assert.Equal(t, 13, got[1].Index)
			assert.Equal(t, frames[0].Users[0].CenterOfMass, got[0].Users[0].CenterOfMass)
		})
	}
}
