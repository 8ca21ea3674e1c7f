// Package recorder writes and reads session recordings.
//
// A recording starts with the 4-byte magic "SKRC", a format version byte and
// a compression tag byte. Everything after the preamble is compressed with
// that tag and holds one CBOR Header followed by a stream of CBOR frames.
package recorder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/types"
	"github.com/skeletrack/skeletrack/pkg/utils"
)

// Version is the current recording format version
const Version byte = 1

var magic = []byte("SKRC")

// Header describes the session a recording was taken from
type Header struct {
	SessionID string    `cbor:"1,keyasint"`
	Engine    string    `cbor:"2,keyasint"`
	CreatedAt time.Time `cbor:"3,keyasint"`
}

// Recorder appends every frame read by a session to a file. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	stream io.WriteCloser
	enc    *codec.Encoder
	frames uint64
	closed bool
}

// Create truncates path and writes the preamble and header
func Create(path string, header Header, tag codec.CompressionTag) (*Recorder, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: %d", codec.ErrUnknownCompression, tag)
	}

	if err := utils.EnsureParentDirectory(path); err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}

	r, err := newRecorder(file, header, tag)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func newRecorder(file *os.File, header Header, tag codec.CompressionTag) (*Recorder, error) {
	buf := bufio.NewWriter(file)

	preamble := append(append([]byte{}, magic...), Version, byte(tag))
	if _, err := buf.Write(preamble); err != nil {
		return nil, fmt.Errorf("write preamble: %w", err)
	}

	stream, err := codec.NewWriter(buf, tag)
	if err != nil {
		return nil, err
	}

	enc := codec.NewEncoder(stream)
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &Recorder{
		file:   file,
		buf:    buf,
		stream: stream,
		enc:    enc,
	}, nil
}

// Write appends one frame
func (r *Recorder) Write(frame *types.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.enc.Encode(frame); err != nil {
		return fmt.Errorf("write frame %d: %w", frame.Index, err)
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written so far
func (r *Recorder) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// FrameRead records the frame
func (r *Recorder) FrameRead(_ context.Context, frame *types.Frame) error {
	return r.Write(frame)
}

// UserAppeared is a no-op; appearances are part of the recorded frame
func (r *Recorder) UserAppeared(context.Context, *types.Frame, *types.User) error {
	return nil
}

// SkeletonRead is a no-op; skeletons are part of the recorded frame
func (r *Recorder) SkeletonRead(context.Context, *types.Frame, *types.User) error {
	return nil
}

// Close flushes the compressed stream and closes the file
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.stream.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("flush compression: %w", err)
	}
	if err := r.buf.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("flush recording: %w", err)
	}
	return r.file.Close()
}

// Reader reads a recording frame by frame
type Reader struct {
	file   *os.File
	stream io.ReadCloser
	dec    *codec.Decoder
	header Header
	tag    codec.CompressionTag
}

// Open opens a recording and reads its header
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}

	r, err := newReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func newReader(file *os.File) (*Reader, error) {
	buffered := bufio.NewReader(file)

	preamble := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(buffered, preamble); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if !bytes.Equal(preamble[:len(magic)], magic) {
		return nil, ErrBadMagic
	}
	if version := preamble[len(magic)]; version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	tag := codec.CompressionTag(preamble[len(magic)+1])
	stream, err := codec.NewReader(buffered, tag)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:   file,
		stream: stream,
		dec:    codec.NewDecoder(stream),
		tag:    tag,
	}
	if err := r.dec.Decode(&r.header); err != nil {
		stream.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	return r, nil
}

// Header returns the recording header
func (r *Reader) Header() Header {
	return r.header
}

// Compression returns the compression the recording was written with
func (r *Reader) Compression() codec.CompressionTag {
	return r.tag
}

// Next decodes the next frame into frame. It returns io.EOF after the last
// frame.
func (r *Reader) Next(frame *types.Frame) error {
	frame.Reset()
	if err := r.dec.Decode(frame); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read frame: %w", err)
	}
	return nil
}

// Close closes the recording
func (r *Reader) Close() error {
	r.stream.Close()
	return r.file.Close()
}
