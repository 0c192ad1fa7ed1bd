package model

import (
	"errors"
	"math"
)

// 金額計算がint64に収まらない
var ErrAmountOutOfRange = errors.New("amount out of range")

// 単価 × 数量。どちらも0以上が前提。
func MulAmount(price, qty int64) (int64, error) {
	if price < 0 || qty < 0 {
		return 0, ErrAmountOutOfRange
	}
	if qty != 0 && price > math.MaxInt64/qty {
		return 0, ErrAmountOutOfRange
	}
	return price * qty, nil
}

// 0以上の金額の合計
func AddAmounts(amounts ...int64) (int64, error) {
	var total int64
	for _, a := range amounts {
		if a < 0 || total > math.MaxInt64-a {
			return 0, ErrAmountOutOfRange
		}
		total += a
	}
	return total, nil
}
