package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression applied to a recording or a
// datagram. Tags are written to disk and to the wire as one byte, so values
// must never change.
type CompressionTag uint8

const (
	CompressionNone CompressionTag = 0
	CompressionZstd CompressionTag = 1
	CompressionLZ4  CompressionTag = 2
)

var (
	// ErrUnknownCompression is returned for tags outside the known set
	ErrUnknownCompression = errors.New("unknown compression")

	// ErrTooLarge is returned when decompressed data would exceed its limit
	ErrTooLarge = errors.New("decompressed data exceeds limit")
)

// MaxDecompressedSize is the largest buffer Decompress will ever produce
const MaxDecompressedSize = 4 << 20

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// Valid reports whether the tag is a known compression
func (tag CompressionTag) Valid() bool {
	return tag <= CompressionLZ4
}

// ParseCompressionTag parses a tag from its string form
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// Datagram compression reuses one encoder and decoder; both are safe for
// concurrent EncodeAll/DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecompressedSize))
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses a single buffer
func Compress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, tag)
	}
}

// Decompress reverses Compress. The result may not exceed maxSize bytes;
// a maxSize outside (0, MaxDecompressedSize] means MaxDecompressedSize.
func Decompress(data []byte, tag CompressionTag, maxSize int) ([]byte, error) {
	if maxSize <= 0 || maxSize > MaxDecompressedSize {
		maxSize = MaxDecompressedSize
	}

	switch tag {
	case CompressionNone:
		if len(data) > maxSize {
			return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), maxSize)
		}
		return data, nil
	case CompressionZstd:
		var header zstd.Header
		if err := header.Decode(data); err == nil && header.HasFCS && header.FrameContentSize > uint64(maxSize) {
			return nil, fmt.Errorf("%w: frame declares %d bytes, limit %d", ErrTooLarge, header.FrameContentSize, maxSize)
		}
		out, err := zstdDecoder.DecodeAll(data, nil)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return nil, fmt.Errorf("%w: limit %d", ErrTooLarge, maxSize)
		}
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) > maxSize {
			return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(out), maxSize)
		}
		return out, nil
	case CompressionLZ4:
		r := io.LimitReader(lz4.NewReader(bytes.NewReader(data)), int64(maxSize)+1)
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if len(out) > maxSize {
			return nil, fmt.Errorf("%w: limit %d", ErrTooLarge, maxSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, tag)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w in a compressing stream. Closing the returned writer
// flushes the stream but does not close w.
func NewWriter(w io.Writer, tag CompressionTag) (io.WriteCloser, error) {
	switch tag {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, tag)
	}
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewReader wraps r in a decompressing stream. Closing the returned reader
// releases decoder resources but does not close r.
func NewReader(r io.Reader, tag CompressionTag) (io.ReadCloser, error) {
	switch tag {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return zstdReadCloser{dec}, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, tag)
	}
}
