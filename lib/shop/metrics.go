package shop

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

func tableOps(table Table, op string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dshop_table_ops_total{table=%q,op=%q}`, table, op))
}

func slotReads(slot string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dshop_slot_reads_total{slot=%q}`, slot))
}

func slotWrites(slot string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dshop_slot_writes_total{slot=%q}`, slot))
}

func slotCorrupt(slot string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dshop_slot_corrupt_total{slot=%q}`, slot))
}

var (
	ordersCreated = metrics.NewCounter("dshop_orders_created_total")
	ordersFailed  = metrics.NewCounter("dshop_orders_failed_total")
	stockNegative = metrics.NewCounter("dshop_stock_negative_total")
	stockClamped  = metrics.NewCounter("dshop_stock_clamped_total")
)
