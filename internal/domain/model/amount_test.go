package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulAmount(t *testing.T) {
	tests := []struct {
		name    string
		price   int64
		qty     int64
		want    int64
		wantErr bool
	}{
		{name: "simple", price: 1200, qty: 3, want: 3600},
		{name: "zero quantity", price: math.MaxInt64, qty: 0, want: 0},
		{name: "exactly max", price: math.MaxInt64, qty: 1, want: math.MaxInt64},
		{name: "overflow", price: math.MaxInt64 / 2, qty: 3, wantErr: true},
		{name: "negative price", price: -1, qty: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulAmount(tt.price, tt.qty)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAmountOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddAmounts(t *testing.T) {
	got, err := AddAmounts(100, 200, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(600), got)

	got, err = AddAmounts()
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = AddAmounts(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestNewOrderItem_Overflow(t *testing.T) {
	p := &Part{ID: 1, Name: "Engine", Price: math.MaxInt64 / 2}

	_, err := NewOrderItem(p, 3)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	it, err := NewOrderItem(p, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), it.TotalPrice)
}
