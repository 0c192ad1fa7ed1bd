package model

// 月ごとの注文番号カウンタ（period = "YYYYMM"）
type OrderSequence struct {
	Period    string `gorm:"primaryKey;type:char(6)"`
	LastValue int64  `gorm:"not null"`
}
