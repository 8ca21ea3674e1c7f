// Package codec provides the CBOR encoding and the compression used by
// session recordings and frame broadcasts.
package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding so that the same frame always
// produces the same bytes.
var encMode cbor.EncMode

// decMode ignores unknown fields so that newer writers stay readable.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 16,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder
type Decoder = cbor.Decoder

// NewEncoder returns a stream encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r. Decode returns io.EOF
// once r is exhausted.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
