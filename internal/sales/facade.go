package sales

import (
	"errors"

	"vendas-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItemDraft é o item cru vindo do formulário de venda, antes de qualquer
// validação. Quantidade <= 0 ou produto inexistente fazem o item ser ignorado.
type LineItemDraft struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// takeStock dá baixa no estoque com um decremento condicional num único
// statement: WHERE stock >= quantidade garante que o estoque nunca fica
// negativo mesmo com vendas concorrentes do mesmo produto. Zero linhas
// afetadas = estoque insuficiente.
func takeStock(tx *gorm.DB, productID uint, quantity int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var p models.Product
		name := ""
		if err := tx.Select("name").First(&p, productID).Error; err == nil {
			name = p.Name
		}
		return &InsufficientStockError{ProductID: productID, ProductName: name}
	}
	return nil
}

// returnStock devolve itens ao estoque. Devolução nunca falha por regra de
// negócio, só por erro de banco.
func returnStock(tx *gorm.DB, productID uint, quantity int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}

// CreateSale persiste a venda, os itens válidos e as baixas de estoque numa
// única transação. O preço unitário de cada item é o preço do produto neste
// momento (snapshot) e o total é a soma exata de quantidade × preço unitário.
//
// Venda que já nasce CANCELADA é persistida com total zero e não processa
// itens nem mexe no estoque.
func CreateSale(db *gorm.DB, sale *models.Sale, drafts []LineItemDraft) error {
	return db.Transaction(func(tx *gorm.DB) error {
		sale.Total = decimal.Zero
		if err := tx.Create(sale).Error; err != nil {
			return err
		}

		if sale.Status == models.StatusCancelada {
			return nil
		}

		total := decimal.Zero
		items := make([]models.SaleItem, 0, len(drafts))
		seen := make(map[uint]bool, len(drafts))

		for _, d := range drafts {
			if d.ProductID == 0 || d.Quantity <= 0 {
				continue
			}
			// o índice único (sale_id, product_id) pegaria isso de qualquer
			// forma, mas aqui vira um erro de negócio em vez de erro de banco
			if seen[d.ProductID] {
				return ErrDuplicateItem
			}
			seen[d.ProductID] = true

			var product models.Product
			if err := tx.First(&product, d.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}

			if err := takeStock(tx, product.ID, d.Quantity); err != nil {
				return err
			}

			item := models.SaleItem{
				SaleID:    sale.ID,
				ProductID: product.ID,
				Quantity:  d.Quantity,
				UnitPrice: product.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			items = append(items, item)

			subtotal := product.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
			total = total.Add(subtotal)
		}

		if len(items) == 0 {
			return ErrNoLineItems
		}

		sale.Total = total
		sale.Items = items
		return tx.Model(&models.Sale{}).
			Where("id = ?", sale.ID).
			UpdateColumn("total", total).Error
	})
}

// UpdateSaleStatus aplica a regra de negócio da troca de status:
//
//   - qualquer status → CANCELADA: devolve o estoque de todos os itens;
//   - CANCELADA → qualquer status: re-verifica e dá baixa no estoque de todos
//     os itens (falha inteira se algum produto não tiver mais estoque);
//   - PENDENTE ⇄ PAGA: só troca o status, sem efeito no estoque.
//
// Troca de status e ajustes de estoque são atômicos: ou tudo, ou nada.
func UpdateSaleStatus(db *gorm.DB, sale *models.Sale, oldStatus, newStatus models.SaleStatus) error {
	if oldStatus == newStatus {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var items []models.SaleItem
		if err := tx.Where("sale_id = ?", sale.ID).Find(&items).Error; err != nil {
			return err
		}

		switch {
		case newStatus == models.StatusCancelada && oldStatus != models.StatusCancelada:
			for _, item := range items {
				if err := returnStock(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}

		case newStatus != models.StatusCancelada && oldStatus == models.StatusCancelada:
			for _, item := range items {
				if err := takeStock(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		sale.Status = newStatus
		return tx.Model(&models.Sale{}).
			Where("id = ?", sale.ID).
			UpdateColumn("status", newStatus).Error
	})
}
