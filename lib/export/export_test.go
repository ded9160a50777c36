package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrders() []catalog.Order {
	created := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	return []catalog.Order{
		{
			ID:                   "ord-1",
			UserID:               "user-1",
			Status:               catalog.StatusPaid,
			Subtotal:             decimal.RequireFromString("7998.00"),
			ShippingCost:         decimal.RequireFromString("23"),
			Total:                decimal.RequireFromString("8021.00"),
			PaymentMethod:        catalog.PaymentPix,
			PaymentStatus:        "approved",
			ShippingService:      "PAC",
			ShippingDeadlineDays: 8,
			ShippingAddressSnapshot: catalog.Address{
				CEP: "01310100", City: "São Paulo", State: "SP",
			},
			CreatedAt: created,
			Items: []catalog.OrderItem{{
				ProductID:    "prod-1",
				NameSnapshot: "Notebook Dell Inspiron 15",
				SKUSnapshot:  "DELL-INS15-I7",
				UnitPrice:    decimal.RequireFromString("3999.00"),
				Quantity:     2,
			}},
		},
		{
			ID:        "ord-2",
			UserID:    "user-2",
			Status:    catalog.StatusPending,
			CreatedAt: created.Add(time.Hour),
			Items:     []catalog.OrderItem{},
		},
	}
}

func TestOCFRoundTrip(t *testing.T) {
	for _, compression := range []string{"", "null", "deflate"} {
		t.Run("codec "+compression, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteOrders(&buf, sampleOrders(), Options{Compression: compression}))

			got, err := ReadOrders(&buf)
			require.NoError(t, err)
			require.Len(t, got, 2)

			first := got[0]
			assert.Equal(t, "ord-1", first.ID)
			assert.Equal(t, "PAID", first.Status)
			assert.Equal(t, "8021", first.Total)
			assert.Equal(t, "São Paulo", first.City)
			assert.True(t, first.CreatedAt.Equal(sampleOrders()[0].CreatedAt))
			require.Len(t, first.Items, 1)
			assert.Equal(t, "3999", first.Items[0].UnitPrice)
			assert.Equal(t, 2, first.Items[0].Quantity)

			assert.Empty(t, got[1].Items)
		})
	}
}

func TestEmptyExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, nil, Options{}))

	got, err := ReadOrders(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnknownCompression(t *testing.T) {
	err := WriteOrders(&bytes.Buffer{}, nil, Options{Compression: "zip"})
	assert.ErrorIs(t, err, ErrBadCodec)
}

func TestReadGarbage(t *testing.T) {
	_, err := ReadOrders(bytes.NewReader([]byte("not avro")))
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteFile(fs, "/exports/orders.avro", sampleOrders(), Options{}))

	f, err := fs.Open("/exports/orders.avro")
	require.NoError(t, err)
	defer f.Close()

	got, err := ReadOrders(f)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSingleRecord(t *testing.T) {
	data, err := Marshal(sampleOrders()[0])
	require.NoError(t, err)

	rec, err := Unmarshal(data)
	require.NoError(t, err)

	want := FromOrder(sampleOrders()[0])
	assert.True(t, want.CreatedAt.Equal(rec.CreatedAt))
	rec.CreatedAt = want.CreatedAt
	assert.Equal(t, want, rec)
}
