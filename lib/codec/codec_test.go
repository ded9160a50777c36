package codec

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() ICodec{
	"JSON": NewJSONCodec,
	"GOB":  NewGOBCodec,
}

type record struct {
	ID        string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	Stock     int
	Images    []string
	CreatedAt time.Time
}

func testRecords() [][]record {
	sale := decimal.RequireFromString("3999.90")
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return [][]record{
		{},
		{{ID: "p1", Price: decimal.RequireFromString("4999.90"), Stock: 10, CreatedAt: created}},
		{
			{ID: "p1", Price: decimal.RequireFromString("4999.90"), SalePrice: &sale, Stock: -5, CreatedAt: created},
			{ID: "p2", Price: decimal.RequireFromString("0.99"), Images: []string{"a.png", "b.png"}, CreatedAt: created},
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()
			for i, records := range testRecords() {
				data, err := c.Marshal(records)
				if err != nil {
					t.Errorf("Marshal %d: %v", i, err)
					continue
				}

				var got []record
				if err := c.Unmarshal(data, &got); err != nil {
					t.Errorf("Unmarshal %d: %v", i, err)
					continue
				}

				if len(got) != len(records) {
					t.Errorf("set %d: expected %d records, got %d", i, len(records), len(got))
					continue
				}
				for j := range records {
					want, have := records[j], got[j]
					if have.ID != want.ID || have.Stock != want.Stock {
						t.Errorf("set %d record %d: got %+v, want %+v", i, j, have, want)
					}
					if !have.Price.Equal(want.Price) {
						t.Errorf("set %d record %d: price %s, want %s", i, j, have.Price, want.Price)
					}
					if (have.SalePrice == nil) != (want.SalePrice == nil) ||
						(want.SalePrice != nil && !have.SalePrice.Equal(*want.SalePrice)) {
						t.Errorf("set %d record %d: sale price mismatch", i, j)
					}
					if !have.CreatedAt.Equal(want.CreatedAt) {
						t.Errorf("set %d record %d: createdAt %v, want %v", i, j, have.CreatedAt, want.CreatedAt)
					}
					if len(want.Images) > 0 && !reflect.DeepEqual(have.Images, want.Images) {
						t.Errorf("set %d record %d: images %v, want %v", i, j, have.Images, want.Images)
					}
				}
			}
		})
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	inputs := [][]byte{
		[]byte("{not json"),
		[]byte("\x00\x01\x02"),
	}
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()
			for _, in := range inputs {
				var got []record
				if err := c.Unmarshal(in, &got); !errors.Is(err, ErrMalformed) {
					t.Errorf("Unmarshal(%q): expected ErrMalformed, got %v", in, err)
				}
			}
		})
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "json", false},
		{"JSON", "json", false},
		{"gob", "gob", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		c, err := ByName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && c.Name() != tt.want {
			t.Errorf("ByName(%q) = %s, want %s", tt.name, c.Name(), tt.want)
		}
	}
}
