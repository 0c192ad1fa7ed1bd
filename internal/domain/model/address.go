package model

import "strings"

// 配送先住所（注文時点のスナップショット）
// ordersテーブルに ship_ プレフィックスで埋め込む。
type ShippingAddress struct {
	//宛名
	Recipient string `gorm:"type:varchar(255);not null" json:"recipient" validate:"required,max=255"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code" validate:"required,max=20"`

	//都道府県・州
	Region string `gorm:"type:varchar(100)" json:"region" validate:"max=100"`

	//市区町村
	City string `gorm:"type:varchar(255);not null" json:"city" validate:"required,max=255"`

	//番地など
	Line1 string `gorm:"type:varchar(255);not null" json:"line1" validate:"required,max=255"`

	//建物名など
	Line2 string `gorm:"type:varchar(255)" json:"line2" validate:"max=255"`

	Country string `gorm:"type:varchar(100);not null" json:"country" validate:"required,max=100"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone" validate:"max=30"`
}

// 必須項目が埋まっているか
func (a ShippingAddress) IsComplete() bool {
	for _, v := range []string{a.Recipient, a.PostalCode, a.City, a.Line1, a.Country} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
