package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	StatusPendente  SaleStatus = "PENDENTE"
	StatusPaga      SaleStatus = "PAGA"
	StatusCancelada SaleStatus = "CANCELADA"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case StatusPendente, StatusPaga, StatusCancelada:
		return true
	}
	return false
}

type Sale struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Client      string          `gorm:"size:200;not null" json:"client"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	ReceiptPath string          `gorm:"size:255" json:"receipt_path"` // caminho do comprovante (opcional)
	Status      SaleStatus      `gorm:"size:10;not null;default:'PENDENTE';index" json:"status"`
	Items       []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SaleItem é imutável depois da criação da venda. UnitPrice é o preço do
// produto no momento da venda (snapshot), não o preço atual.
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"not null;uniqueIndex:idx_sale_product" json:"sale_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_sale_product" json:"product_id"`
	Product   Product         `gorm:"constraint:OnDelete:RESTRICT" json:"product"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}
