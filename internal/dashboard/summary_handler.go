package dashboard

import (
	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SummaryResponse struct {
	TotalProducts   int64             `json:"total_products"`
	TotalCategories int64             `json:"total_categories"`
	TotalSales      int64             `json:"total_sales"`
	StockUnits      int64             `json:"stock_units"`       // unidades somadas de todos os produtos
	StockValue      decimal.Decimal   `json:"stock_value"`       // Σ preço × estoque
	SalesByStatus   []SalesByStatus   `json:"sales_by_status"`
}

type SalesByStatus struct {
	Status models.SaleStatus `json:"status"`
	Count  int64             `json:"count"`
	Total  decimal.Decimal   `json:"total"`
}

// GET /api/dashboard/summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var res SummaryResponse

		database.DB.Model(&models.Product{}).Count(&res.TotalProducts)
		database.DB.Model(&models.Category{}).Count(&res.TotalCategories)
		database.DB.Model(&models.Sale{}).Count(&res.TotalSales)

		var stock struct {
			Units int64
			Value decimal.Decimal
		}
		if err := database.DB.Model(&models.Product{}).
			Select("COALESCE(SUM(stock), 0) as units, COALESCE(SUM(price * stock), 0) as value").
			Scan(&stock).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular o resumo")
		}
		res.StockUnits = stock.Units
		res.StockValue = stock.Value

		var byStatus []SalesByStatus
		if err := database.DB.Model(&models.Sale{}).
			Select("status, COUNT(*) as count, COALESCE(SUM(total), 0) as total").
			Group("status").
			Scan(&byStatus).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular o resumo")
		}
		res.SalesByStatus = byStatus

		return c.JSON(res)
	}
}
