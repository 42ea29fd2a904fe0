package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostEstimation(t *testing.T) {
	// 2 x 100000 + 1 x 50000 = 250000
	mr := &MaterialRequest{
		Orders: []OrderItem{
			{Name: "Helm proyek", Qty: 2, UOM: "pcs", EstimasiHarga: 100000},
			{Name: "Sarung tangan", Qty: 1, UOM: "box", EstimasiHarga: 50000},
		},
	}
	mr.RecomputeEstimation()
	assert.Equal(t, int64(250000), mr.CostEstimation)

	// estimation follows every item mutation
	mr.Orders[0].Qty = 3
	mr.RecomputeEstimation()
	assert.Equal(t, int64(350000), mr.CostEstimation)

	mr.Orders = mr.Orders[:1]
	mr.RecomputeEstimation()
	assert.Equal(t, int64(300000), mr.CostEstimation)
}

func TestPOSubtotal(t *testing.T) {
	items := []POItem{
		{Qty: 2, Price: 150000},
		{Qty: 4, Price: 25000},
	}
	assert.Equal(t, int64(400000), POSubtotal(items))
	assert.Equal(t, int64(0), POSubtotal(nil))
}

func TestEffectiveTax(t *testing.T) {
	assert.Equal(t, int64(0), EffectiveTax(TaxModeIncluded, 1000000, 11, 99999))
	assert.Equal(t, int64(99999), EffectiveTax(TaxModeManual, 1000000, 11, 99999))
	assert.Equal(t, int64(110000), EffectiveTax(TaxModePercent, 1000000, 11, 0))
	// rounding to whole rupiah
	assert.Equal(t, int64(110), EffectiveTax(TaxModePercent, 1001, 11, 0))
}

func TestRecomputeTotals(t *testing.T) {
	po := &PurchaseOrder{
		Items: []POItem{
			{Name: "Kabel NYA", Qty: 10, Price: 50000},
			{Name: "MCB 10A", Qty: 2, Price: 75000},
		},
		Discount:   50000,
		TaxMode:    TaxModePercent,
		TaxPercent: 11,
		Postage:    20000,
	}
	po.RecomputeTotals()

	assert.Equal(t, int64(500000), po.Items[0].TotalPrice)
	assert.Equal(t, int64(150000), po.Items[1].TotalPrice)
	// 650000 - 50000 + 71500 + 20000
	assert.Equal(t, int64(71500), po.Tax)
	assert.Equal(t, int64(691500), po.TotalPrice)
}

func TestManualTaxSurvivesModeFlips(t *testing.T) {
	po := &PurchaseOrder{
		Items:     []POItem{{Name: "Genset", Qty: 1, Price: 1000000}},
		TaxMode:   TaxModeManual,
		TaxManual: 123456,
	}
	po.RecomputeTotals()
	assert.Equal(t, int64(123456), po.Tax)

	// flipping to included must not discard the manually entered value
	po.TaxMode = TaxModeIncluded
	po.RecomputeTotals()
	assert.Equal(t, int64(0), po.Tax)
	assert.Equal(t, int64(123456), po.TaxManual)

	po.TaxMode = TaxModeManual
	po.RecomputeTotals()
	assert.Equal(t, int64(123456), po.Tax)
}

func TestAddPORefAppendOnly(t *testing.T) {
	it := OrderItem{Name: "Helm"}
	it.AddPORef("PO-JKT-0001")
	it.AddPORef("PO-JKT-0002")
	it.AddPORef("PO-JKT-0001") // duplicate ignored
	assert.Equal(t, []string{"PO-JKT-0001", "PO-JKT-0002"}, it.PORefs)
}
