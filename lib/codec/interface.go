package codec

import (
	"fmt"
	"strings"
)

// ICodec encodes the records stored in a table slot
type ICodec interface {
	// Name returns the configuration name of the codec (json, gob)
	Name() string
	// Marshal encodes v
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes b into the value pointed to by v
	Unmarshal(b []byte, v any) error
}

// ByName returns the codec for a configuration value.
func ByName(name string) (ICodec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return NewJSONCodec(), nil
	case "gob":
		return NewGOBCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q (must be json or gob)", name)
	}
}
