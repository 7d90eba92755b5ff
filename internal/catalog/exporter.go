package catalog

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"vendas-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ErrUnknownFormat: formato de exportação não suportado.
var ErrUnknownFormat = errors.New("formato de exportação desconhecido")

// ProdutoExport é a projeção de produto usada nos arquivos exportados.
// As chaves (id/nome/descricao/categoria/preco/estoque) são o formato
// estável do arquivo: o import reconhece exatamente esses nomes, então
// export → import é idempotente.
type ProdutoExport struct {
	ID        uint            `json:"id"`
	Nome      string          `json:"nome"`
	Descricao string          `json:"descricao"`
	Categoria string          `json:"categoria"`
	Preco     decimal.Decimal `json:"preco"`
	Estoque   int             `json:"estoque"`
}

// Exporter serializa a lista de produtos num formato de arquivo.
type Exporter interface {
	Export(produtos []ProdutoExport) ([]byte, error)
	ContentType() string
	FileName() string
}

var exporters = map[string]Exporter{
	"json": jsonExporter{},
	"xml":  xmlExporter{},
	"txt":  txtExporter{},
	"xlsx": xlsxExporter{},
}

func GetExporter(format string) (Exporter, error) {
	e, ok := exporters[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return e, nil
}

// CollectProducts monta a projeção de exportação, ordenada por nome e com
// filtro opcional por categoria.
func CollectProducts(db *gorm.DB, categoryID string) ([]ProdutoExport, error) {
	dbq := db.Preload("Category").Order("name asc")
	if categoryID != "" {
		dbq = dbq.Where("category_id = ?", categoryID)
	}

	var products []models.Product
	if err := dbq.Find(&products).Error; err != nil {
		return nil, err
	}

	out := make([]ProdutoExport, 0, len(products))
	for _, p := range products {
		categoria := ""
		if p.Category != nil {
			categoria = p.Category.Name
		}
		out = append(out, ProdutoExport{
			ID:        p.ID,
			Nome:      p.Name,
			Descricao: p.Description,
			Categoria: categoria,
			Preco:     p.Price,
			Estoque:   p.Stock,
		})
	}
	return out, nil
}

// --- JSON ---

type jsonExporter struct{}

func (jsonExporter) Export(produtos []ProdutoExport) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // preserva acentos e caracteres especiais como estão
	enc.SetIndent("", "    ")
	if err := enc.Encode(produtos); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (jsonExporter) ContentType() string { return "application/json" }
func (jsonExporter) FileName() string    { return "produtos.json" }

// --- XML ---

type xmlProduto struct {
	XMLName   xml.Name `xml:"produto"`
	ID        uint     `xml:"id"`
	Nome      string   `xml:"nome"`
	Descricao string   `xml:"descricao"`
	Categoria string   `xml:"categoria"`
	Preco     string   `xml:"preco"`
	Estoque   int      `xml:"estoque"`
}

type xmlProdutos struct {
	XMLName xml.Name     `xml:"produtos"`
	Itens   []xmlProduto `xml:"produto"`
}

type xmlExporter struct{}

func (xmlExporter) Export(produtos []ProdutoExport) ([]byte, error) {
	root := xmlProdutos{Itens: make([]xmlProduto, 0, len(produtos))}
	for _, p := range produtos {
		root.Itens = append(root.Itens, xmlProduto{
			ID:        p.ID,
			Nome:      p.Nome,
			Descricao: p.Descricao,
			Categoria: p.Categoria,
			Preco:     p.Preco.StringFixed(2),
			Estoque:   p.Estoque,
		})
	}

	body, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func (xmlExporter) ContentType() string { return "application/xml" }
func (xmlExporter) FileName() string    { return "produtos.xml" }

// --- TXT (relatório simples, sem import correspondente) ---

type txtExporter struct{}

func (txtExporter) Export(produtos []ProdutoExport) ([]byte, error) {
	separator := strings.Repeat("=", 40)

	var b strings.Builder
	b.WriteString("RELATÓRIO DE PRODUTOS\n")
	b.WriteString(separator + "\n\n")

	totalEstoque := 0
	totalValor := decimal.Zero

	for _, p := range produtos {
		categoria := p.Categoria
		if categoria == "" {
			categoria = "-"
		}
		subtotal := p.Preco.Mul(decimal.NewFromInt(int64(p.Estoque)))

		fmt.Fprintf(&b, "ID:       %d\n", p.ID)
		fmt.Fprintf(&b, "Nome:     %s\n", p.Nome)
		fmt.Fprintf(&b, "Categoria: %s\n", categoria)
		fmt.Fprintf(&b, "Preço:    R$ %s\n", p.Preco.StringFixed(2))
		fmt.Fprintf(&b, "Estoque:  %d unidades\n", p.Estoque)
		fmt.Fprintf(&b, "Subtotal: R$ %s\n", subtotal.StringFixed(2))
		b.WriteString(strings.Repeat("-", 40) + "\n")

		totalEstoque += p.Estoque
		totalValor = totalValor.Add(subtotal)
	}

	b.WriteString("\n" + separator + "\n")
	b.WriteString("RESUMO DO RELATÓRIO\n")
	fmt.Fprintf(&b, "Total de Itens:   %d\n", len(produtos))
	fmt.Fprintf(&b, "Total em Estoque: %d unidades\n", totalEstoque)
	fmt.Fprintf(&b, "Valor Total:      R$ %s\n", totalValor.StringFixed(2))
	b.WriteString(separator + "\n")

	return []byte(b.String()), nil
}

func (txtExporter) ContentType() string { return "text/plain; charset=utf-8" }
func (txtExporter) FileName() string    { return "relatorio_produtos.txt" }

// --- XLSX (planilha, sem import correspondente) ---

type xlsxExporter struct{}

func (xlsxExporter) Export(produtos []ProdutoExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headers := []string{"ID", "Nome", "Descrição", "Categoria", "Preço", "Estoque"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, p := range produtos {
		values := []any{p.ID, p.Nome, p.Descricao, p.Categoria, p.Preco.StringFixed(2), p.Estoque}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (xlsxExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (xlsxExporter) FileName() string { return "produtos.xlsx" }
