package usecase

import (
	"math"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 明細合計（純粋関数）
func OrderTotal(lines []model.OrderItem) int64 {
	var total int64
	for _, l := range lines {
		total += l.TotalPrice
	}
	return total
}

// 送料と税の設定。金額はすべて最小通貨単位。
type Pricing struct {
	FlatShippingFee int64
	// 小計がこれを超えたら送料無料
	FreeShippingThreshold int64
	TaxRate               decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FlatShippingFee:       2500,
		FreeShippingThreshold: 50000,
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

func (p Pricing) ShippingCost(lines []model.OrderItem) int64 {
	if OrderTotal(lines) > p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// 小計 × 税率（四捨五入）
func (p Pricing) Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(p.TaxRate).Round(0).IntPart()
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// 注文の金額一式
type Quote struct {
	Subtotal    int64
	ShippingFee int64
	Tax         int64
	GrandTotal  int64
}

// Quote は明細から小計・送料・税・支払総額を出す。
// どこかでint64を超えたら model.ErrAmountOutOfRange。
func (p Pricing) Quote(lines []model.OrderItem) (Quote, error) {
	totals := make([]int64, 0, len(lines))
	for _, l := range lines {
		totals = append(totals, l.TotalPrice)
	}
	subtotal, err := model.AddAmounts(totals...)
	if err != nil {
		return Quote{}, err
	}

	tax := decimal.NewFromInt(subtotal).Mul(p.TaxRate).Round(0)
	if tax.GreaterThan(maxAmount) {
		return Quote{}, model.ErrAmountOutOfRange
	}

	q := Quote{
		Subtotal:    subtotal,
		ShippingFee: p.ShippingCost(lines),
		Tax:         tax.IntPart(),
	}
	q.GrandTotal, err = model.AddAmounts(q.Subtotal, q.ShippingFee, q.Tax)
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}
