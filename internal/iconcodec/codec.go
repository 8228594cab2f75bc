// Package iconcodec encodes platform icon handles to base64 PNG strings.
//
// The ingestion path treats every encode failure as recoverable: the
// affected field degrades to null and normalization of the rest of the
// record continues.
package iconcodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/whyash5114/notistore/internal/errors"
)

// Codec converts an opaque platform icon handle to a base64 PNG string.
type Codec interface {
	Encode(handle any) (string, error)
}

// PNG encodes image.Image handles. Raw []byte handles are assumed to be
// already-encoded PNG data and are passed through; string handles are
// assumed to be pre-encoded base64 and returned as-is.
type PNG struct{}

// NewPNG returns a PNG codec.
func NewPNG() *PNG {
	return &PNG{}
}

// Encode implements Codec.
func (*PNG) Encode(handle any) (string, error) {
	switch v := handle.(type) {
	case nil:
		return "", errors.NewCodecFailure(fmt.Errorf("nil icon handle"))
	case string:
		return v, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(v), nil
	case image.Image:
		var buf bytes.Buffer
		if err := png.Encode(&buf, v); err != nil {
			return "", errors.NewCodecFailure(fmt.Errorf("png encode: %w", err))
		}
		return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
	default:
		return "", errors.NewCodecFailure(fmt.Errorf("unsupported icon handle type %T", handle))
	}
}

// EncodeOrNil runs the codec and degrades failures to nil, the contract
// every icon field in a record follows.
func EncodeOrNil(c Codec, handle any) *string {
	if c == nil || handle == nil {
		return nil
	}
	s, err := c.Encode(handle)
	if err != nil || s == "" {
		return nil
	}
	return &s
}
