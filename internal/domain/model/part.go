package model

import (
	"time"

	"gorm.io/gorm"
)

// 部品・アクセサリー
type Part struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	SKU          string         `gorm:"column:sku;type:varchar(64);uniqueIndex" json:"sku"`
	Manufacturer string         `gorm:"type:varchar(255)" json:"manufacturer"`
	Description  string         `gorm:"type:text" json:"description"`
	Price        int64          `gorm:"not null" json:"price"`
	Stock        int64          `gorm:"not null" json:"stock"`
	IsAvailable  bool           `gorm:"not null;default:false" json:"is_available"`
	CreatedAt    time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Part) Ref() ItemRef         { return ItemRef{Kind: ItemKindPart, ID: p.ID} }
func (p *Part) DisplayName() string  { return p.Name }
func (p *Part) UnitPrice() int64     { return p.Price }
func (p *Part) Available() bool      { return p.IsAvailable }
func (p *Part) StockQuantity() int64 { return p.Stock }

func (p *Part) AdjustStock(delta int64) error {
	return adjustStock(&p.Stock, delta)
}

func (p *Part) Clone() StockableItem {
	c := *p
	return &c
}
