package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 販売車両
type Vehicle struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Make        string         `gorm:"type:varchar(100);not null" json:"make"`
	Model       string         `gorm:"type:varchar(100);not null" json:"model"`
	ModelYear   int            `gorm:"not null" json:"model_year"`
	VIN         string         `gorm:"column:vin;type:varchar(32);uniqueIndex" json:"vin"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Stock       int64          `gorm:"not null" json:"stock"`
	IsAvailable bool           `gorm:"not null;default:false" json:"is_available"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vehicle) Ref() ItemRef         { return ItemRef{Kind: ItemKindVehicle, ID: v.ID} }
func (v *Vehicle) UnitPrice() int64     { return v.Price }
func (v *Vehicle) Available() bool      { return v.IsAvailable }
func (v *Vehicle) StockQuantity() int64 { return v.Stock }

// 例: "2021 Toyota Corolla"
func (v *Vehicle) DisplayName() string {
	return fmt.Sprintf("%d %s %s", v.ModelYear, v.Make, v.Model)
}

func (v *Vehicle) AdjustStock(delta int64) error {
	return adjustStock(&v.Stock, delta)
}

func (v *Vehicle) Clone() StockableItem {
	c := *v
	return &c
}
