package sales

import (
	"testing"

	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Banco em memória isolado por teste
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func currentStock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func TestCreateSaleComputesTotalAndDecrementsStock(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.50", 10)
	b := seedProduct(t, db, "Produto B", "3.25", 8)

	sale := models.Sale{Client: "Maria", Status: models.StatusPendente}
	err := CreateSale(db, &sale, []LineItemDraft{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: b.ID, Quantity: 2},
	})
	require.NoError(t, err)

	// total = 3×10.50 + 2×3.25 = 38.00
	require.True(t, sale.Total.Equal(decimal.RequireFromString("38.00")),
		"total esperado 38.00, veio %s", sale.Total)

	require.Equal(t, 7, currentStock(t, db, a.ID))
	require.Equal(t, 6, currentStock(t, db, b.ID))

	var items []models.SaleItem
	require.NoError(t, db.Where("sale_id = ?", sale.ID).Order("product_id asc").Find(&items).Error)
	require.Len(t, items, 2)
	require.True(t, items[0].UnitPrice.Equal(a.Price), "preço unitário é snapshot do preço do produto")
	require.Equal(t, 3, items[0].Quantity)
}

func TestCreateSaleBornCancelledSkipsStock(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 10)

	sale := models.Sale{Client: "João", Status: models.StatusCancelada}
	err := CreateSale(db, &sale, []LineItemDraft{{ProductID: a.ID, Quantity: 5}})
	require.NoError(t, err)

	require.True(t, sale.Total.IsZero(), "venda que nasce cancelada tem total zero")
	require.Equal(t, 10, currentStock(t, db, a.ID))

	var itemCount int64
	db.Model(&models.SaleItem{}).Where("sale_id = ?", sale.ID).Count(&itemCount)
	require.Zero(t, itemCount, "venda cancelada não processa itens")
}

func TestCreateSaleInsufficientStockIsAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 10)
	b := seedProduct(t, db, "Produto B", "5.00", 2)

	sale := models.Sale{Client: "Ana", Status: models.StatusPendente}
	err := CreateSale(db, &sale, []LineItemDraft{
		{ProductID: a.ID, Quantity: 3}, // ok
		{ProductID: b.ID, Quantity: 5}, // estoque insuficiente
	})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, b.ID, insufficient.ProductID)
	require.Equal(t, "Produto B", insufficient.ProductName)

	// rollback total: nem o primeiro item baixou estoque, nem a venda entrou
	require.Equal(t, 10, currentStock(t, db, a.ID))
	require.Equal(t, 2, currentStock(t, db, b.ID))

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	require.Zero(t, saleCount)

	var itemCount int64
	db.Model(&models.SaleItem{}).Count(&itemCount)
	require.Zero(t, itemCount)
}

func TestCreateSaleSkipsInvalidDrafts(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "2.00", 10)

	sale := models.Sale{Client: "Rita", Status: models.StatusPendente}
	err := CreateSale(db, &sale, []LineItemDraft{
		{ProductID: a.ID, Quantity: 0},  // quantidade inválida
		{ProductID: 9999, Quantity: 2},  // produto inexistente
		{ProductID: a.ID, Quantity: 4},  // válido
	})
	require.NoError(t, err)

	require.True(t, sale.Total.Equal(decimal.RequireFromString("8.00")))
	require.Equal(t, 6, currentStock(t, db, a.ID))

	var items []models.SaleItem
	require.NoError(t, db.Where("sale_id = ?", sale.ID).Find(&items).Error)
	require.Len(t, items, 1)
}

func TestCreateSaleRejectsDuplicateProduct(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 10)

	sale := models.Sale{Client: "Nina", Status: models.StatusPendente}
	err := CreateSale(db, &sale, []LineItemDraft{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: a.ID, Quantity: 3},
	})
	require.ErrorIs(t, err, ErrDuplicateItem)

	// rollback total
	require.Equal(t, 10, currentStock(t, db, a.ID))

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	require.Zero(t, saleCount)
}

func TestCreateSaleWithoutValidItemsFails(t *testing.T) {
	db := setupTestDB(t)

	sale := models.Sale{Client: "Caio", Status: models.StatusPendente}
	err := CreateSale(db, &sale, []LineItemDraft{
		{ProductID: 9999, Quantity: 2},
	})
	require.ErrorIs(t, err, ErrNoLineItems)

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	require.Zero(t, saleCount, "venda sem itens válidos não é persistida")
}

func TestCancelSaleReturnsStock(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 10)

	sale := models.Sale{Client: "Lia", Status: models.StatusPaga}
	require.NoError(t, CreateSale(db, &sale, []LineItemDraft{{ProductID: a.ID, Quantity: 3}}))
	require.Equal(t, 7, currentStock(t, db, a.ID))

	require.NoError(t, UpdateSaleStatus(db, &sale, models.StatusPaga, models.StatusCancelada))
	require.Equal(t, 10, currentStock(t, db, a.ID), "cancelar devolve exatamente as quantidades dos itens")
	require.Equal(t, models.StatusCancelada, sale.Status)
}

func TestReactivateSaleTakesStockAgain(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 10)

	sale := models.Sale{Client: "Leo", Status: models.StatusPendente}
	require.NoError(t, CreateSale(db, &sale, []LineItemDraft{{ProductID: a.ID, Quantity: 4}}))
	require.NoError(t, UpdateSaleStatus(db, &sale, models.StatusPendente, models.StatusCancelada))
	require.Equal(t, 10, currentStock(t, db, a.ID))

	require.NoError(t, UpdateSaleStatus(db, &sale, models.StatusCancelada, models.StatusPaga))
	require.Equal(t, 6, currentStock(t, db, a.ID))
	require.Equal(t, models.StatusPaga, sale.Status)
}

func TestReactivateFailsWhenStockRanOut(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 5)
	b := seedProduct(t, db, "Produto B", "1.00", 5)

	sale := models.Sale{Client: "Bia", Status: models.StatusPendente}
	require.NoError(t, CreateSale(db, &sale, []LineItemDraft{
		{ProductID: a.ID, Quantity: 4},
		{ProductID: b.ID, Quantity: 2},
	}))
	require.NoError(t, UpdateSaleStatus(db, &sale, models.StatusPendente, models.StatusCancelada))

	// Outra venda consome o estoque devolvido do produto B
	other := models.Sale{Client: "Outro", Status: models.StatusPaga}
	require.NoError(t, CreateSale(db, &other, []LineItemDraft{{ProductID: b.ID, Quantity: 4}}))

	stockA := currentStock(t, db, a.ID)
	stockB := currentStock(t, db, b.ID)

	err := UpdateSaleStatus(db, &sale, models.StatusCancelada, models.StatusPaga)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, b.ID, insufficient.ProductID)

	// nenhuma baixa parcial e o status continua CANCELADA
	require.Equal(t, stockA, currentStock(t, db, a.ID))
	require.Equal(t, stockB, currentStock(t, db, b.ID))

	var persisted models.Sale
	require.NoError(t, db.First(&persisted, sale.ID).Error)
	require.Equal(t, models.StatusCancelada, persisted.Status)
}

func TestPendingPaidTransitionHasNoStockEffect(t *testing.T) {
	db := setupTestDB(t)
	a := seedProduct(t, db, "Produto A", "10.00", 10)

	sale := models.Sale{Client: "Du", Status: models.StatusPendente}
	require.NoError(t, CreateSale(db, &sale, []LineItemDraft{{ProductID: a.ID, Quantity: 2}}))
	require.Equal(t, 8, currentStock(t, db, a.ID))

	require.NoError(t, UpdateSaleStatus(db, &sale, models.StatusPendente, models.StatusPaga))
	require.Equal(t, 8, currentStock(t, db, a.ID))

	require.NoError(t, UpdateSaleStatus(db, &sale, models.StatusPaga, models.StatusPendente))
	require.Equal(t, 8, currentStock(t, db, a.ID))
}
