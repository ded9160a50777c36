package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

var log = logger.GetLogger("export")

// ErrBadCodec is returned for unknown compression codec names
var ErrBadCodec = errors.New("unknown compression codec")

var schema = avro.MustParse(OrderSchema)

// Options configures an export
type Options struct {
	Compression string // null or deflate ("" = deflate)
}

func codecOpt(name string) (ocf.EncoderFunc, error) {
	switch name {
	case "", "deflate":
		return ocf.WithCodec(ocf.Deflate), nil
	case "null":
		return ocf.WithCodec(ocf.Null), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadCodec, name)
	}
}

// WriteOrders writes orders as an Avro object container file to w.
func WriteOrders(w io.Writer, orders []catalog.Order, opts Options) error {
	codec, err := codecOpt(opts.Compression)
	if err != nil {
		return err
	}

	enc, err := ocf.NewEncoder(OrderSchema, w, codec, ocf.WithMetadata(map[string][]byte{
		"dshop.kind": []byte("orders"),
	}))
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	for _, o := range orders {
		if err := enc.Encode(FromOrder(o)); err != nil {
			_ = enc.Close()
			return fmt.Errorf("encode order %s: %w", o.ID, err)
		}
	}
	return enc.Close()
}

// ReadOrders decodes an Avro object container file written by WriteOrders.
func ReadOrders(r io.Reader) ([]OrderV1, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	out := []OrderV1{}
	for dec.HasNext() {
		var rec OrderV1
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode order %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	if err := dec.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteFile exports orders to path on fs, creating the directory if needed.
func WriteFile(fs afero.Fs, path string, orders []catalog.Order, opts Options) (err error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := WriteOrders(f, orders, opts); err != nil {
		return err
	}
	log.Infof("exported %d orders to %s", len(orders), path)
	return nil
}

// Marshal encodes a single order without the container, e.g. for a message
// payload.
func Marshal(o catalog.Order) ([]byte, error) {
	return avro.Marshal(schema, FromOrder(o))
}

// Unmarshal decodes a single order encoded by Marshal.
func Unmarshal(data []byte) (OrderV1, error) {
	var rec OrderV1
	err := avro.Unmarshal(schema, data, &rec)
	return rec, err
}
