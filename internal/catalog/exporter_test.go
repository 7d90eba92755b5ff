package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
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

func seedCatalog(t *testing.T, db *gorm.DB) (models.Category, models.Product, models.Product) {
	t.Helper()
	cat := models.Category{Name: "Ferramentas"}
	require.NoError(t, db.Create(&cat).Error)

	martelo := models.Product{
		Name:        "Martelo",
		Description: "Martelo de unha",
		Price:       decimal.RequireFromString("25.90"),
		Stock:       4,
		CategoryID:  &cat.ID,
	}
	require.NoError(t, db.Create(&martelo).Error)

	cabo := models.Product{
		Name:  "Cabo de aço",
		Price: decimal.RequireFromString("7.50"),
		Stock: 12,
	}
	require.NoError(t, db.Create(&cabo).Error)

	return cat, martelo, cabo
}

func TestGetExporterUnknownFormat(t *testing.T) {
	_, err := GetExporter("pdf")
	require.ErrorIs(t, err, ErrUnknownFormat)

	for _, format := range []string{"json", "xml", "txt", "xlsx"} {
		e, err := GetExporter(format)
		require.NoError(t, err)
		require.NotNil(t, e)
	}
}

func TestCollectProductsProjection(t *testing.T) {
	db := setupTestDB(t)
	_, martelo, _ := seedCatalog(t, db)

	produtos, err := CollectProducts(db, "")
	require.NoError(t, err)
	require.Len(t, produtos, 2)

	// ordenado por nome
	require.Equal(t, "Cabo de aço", produtos[0].Nome)
	require.Equal(t, "", produtos[0].Categoria, "produto sem categoria exporta categoria vazia")

	require.Equal(t, martelo.ID, produtos[1].ID)
	require.Equal(t, "Ferramentas", produtos[1].Categoria)
	require.True(t, produtos[1].Preco.Equal(decimal.RequireFromString("25.90")))
}

func TestCollectProductsCategoryFilter(t *testing.T) {
	db := setupTestDB(t)
	cat, _, _ := seedCatalog(t, db)

	produtos, err := CollectProducts(db, strconv.Itoa(int(cat.ID)))
	require.NoError(t, err)
	require.Len(t, produtos, 1)
	require.Equal(t, "Martelo", produtos[0].Nome)
}

func TestJSONExportShape(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	produtos, err := CollectProducts(db, "")
	require.NoError(t, err)

	data, err := jsonExporter{}.Export(produtos)
	require.NoError(t, err)

	// identado e com acentos preservados
	require.True(t, bytes.Contains(data, []byte("    \"nome\"")))
	require.True(t, bytes.Contains(data, []byte("Cabo de aço")))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	// preço sai como string para preservar a precisão decimal
	preco, ok := decoded[1]["preco"].(string)
	require.True(t, ok, "preco deve ser serializado como texto")
	require.True(t, decimal.RequireFromString(preco).Equal(decimal.RequireFromString("25.90")))
	require.Equal(t, "Ferramentas", decoded[1]["categoria"])
}

func TestXMLExportRoundTripsThroughParser(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	produtos, err := CollectProducts(db, "")
	require.NoError(t, err)

	data, err := xmlExporter{}.Export(produtos)
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte("<?xml")))
	require.True(t, bytes.Contains(data, []byte("<produtos>")))
	require.True(t, bytes.Contains(data, []byte("  <produto>")))

	records, err := parseXML(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Martelo", records[1].Nome)
	require.True(t, records[1].Preco.Equal(decimal.RequireFromString("25.90")))
	require.Equal(t, 4, records[1].Estoque)
}

func TestTXTReport(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	produtos, err := CollectProducts(db, "")
	require.NoError(t, err)

	data, err := txtExporter{}.Export(produtos)
	require.NoError(t, err)
	report := string(data)

	require.True(t, strings.HasPrefix(report, "RELATÓRIO DE PRODUTOS\n"))
	require.Contains(t, report, "Nome:     Martelo")
	require.Contains(t, report, "Categoria: Ferramentas")
	require.Contains(t, report, "Preço:    R$ 25.90")
	// subtotal Martelo = 25.90 × 4
	require.Contains(t, report, "Subtotal: R$ 103.60")
	// produto sem categoria aparece com "-"
	require.Contains(t, report, "Categoria: -")

	require.Contains(t, report, "RESUMO DO RELATÓRIO")
	require.Contains(t, report, "Total de Itens:   2")
	// 4 + 12 unidades
	require.Contains(t, report, "Total em Estoque: 16 unidades")
	// 103.60 + 90.00
	require.Contains(t, report, "Valor Total:      R$ 193.60")
}

func TestXLSXExport(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	produtos, err := CollectProducts(db, "")
	require.NoError(t, err)

	data, err := xlsxExporter{}.Export(produtos)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "cabeçalho + 2 produtos")

	require.Equal(t, "Nome", rows[0][1])
	require.Equal(t, "Cabo de aço", rows[1][1])
	require.Equal(t, "25.90", rows[2][4])
}
