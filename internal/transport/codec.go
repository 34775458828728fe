// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transport

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrTransportCodec reports text-encoded payloads that cannot be decoded
// back to their binary form.
var ErrTransportCodec = errors.New("transport codec failure")

// Codec converts binary audio containers to and from a text-safe form for
// carriage in textual upload fields. It is pure: no state, no information
// loss, Decode(Encode(x)) == x for every byte sequence.
type Codec struct {
	encoding *base64.Encoding
}

// NewCodec returns the standard-alphabet base64 codec used by the upload
// boundary.
func NewCodec() *Codec {
	return &Codec{encoding: base64.StdEncoding}
}

// Encode renders raw container bytes as text.
func (c *Codec) Encode(data []byte) string {
	return c.encoding.EncodeToString(data)
}

// Decode recovers container bytes from their text form.
func (c *Codec) Decode(text string) ([]byte, error) {
	data, err := c.encoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportCodec, err)
	}
	return data, nil
}
