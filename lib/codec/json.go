package codec

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when the input is not valid for the codec
var ErrMalformed = errors.New("malformed input")

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the ICodec interface using json encoding. It is
// the default because slots stay readable with `dshop kv get`.
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Name() string {
	return "json"
}

func (j jsonCodecImpl) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonCodecImpl) Unmarshal(b []byte, v any) error {
	// gjson validates without allocating, so garbage is rejected before
	// the decoder touches v
	if !gjson.ValidBytes(b) {
		return ErrMalformed
	}
	return json.Unmarshal(b, v)
}
