package catalog

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vendas-backend/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	// ErrInvalidFormat: extensão de arquivo não suportada pelo import.
	ErrInvalidFormat = errors.New("formato de arquivo inválido (use .json ou .xml)")
	// ErrMalformedDocument: o conteúdo não pôde ser interpretado.
	ErrMalformedDocument = errors.New("arquivo não pôde ser interpretado")
)

var titleCaser = cases.Title(language.BrazilianPortuguese)

// ImportRecord é um registro de produto vindo de um arquivo de import.
// Campos numéricos ausentes valem 0; descrição ausente vale "".
type ImportRecord struct {
	Nome      string          `json:"nome"`
	Descricao string          `json:"descricao"`
	Preco     decimal.Decimal `json:"preco"`
	Estoque   int             `json:"estoque"`
	Categoria string          `json:"categoria"`
}

// ParseImportFile escolhe o parser pela extensão do arquivo enviado e valida
// os registros. Preço e estoque nunca podem ser negativos, a mesma regra do
// cadastro manual: um arquivo que viola isso é rejeitado inteiro.
func ParseImportFile(fileName string, data []byte) ([]ImportRecord, error) {
	var (
		records []ImportRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		records, err = parseJSON(data)
	case ".xml":
		records, err = parseXML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, fileName)
	}
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Preco.IsNegative() {
			return nil, fmt.Errorf("%w: preço negativo para %q", ErrMalformedDocument, rec.Nome)
		}
		if rec.Estoque < 0 {
			return nil, fmt.Errorf("%w: estoque negativo para %q", ErrMalformedDocument, rec.Nome)
		}
	}
	return records, nil
}

// O documento JSON precisa ser uma lista de objetos. Preço aceita número ou
// string ("9.99") e é interpretado como decimal exato, nunca float binário.
func parseJSON(data []byte) ([]ImportRecord, error) {
	var records []ImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return records, nil
}

type xmlImportProduto struct {
	Nome      string `xml:"nome"`
	Descricao string `xml:"descricao"`
	Preco     string `xml:"preco"`
	Estoque   int    `xml:"estoque"`
	Categoria string `xml:"categoria"`
}

type xmlImportProdutos struct {
	XMLName xml.Name           `xml:"produtos"`
	Itens   []xmlImportProduto `xml:"produto"`
}

func parseXML(data []byte) ([]ImportRecord, error) {
	var doc xmlImportProdutos
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	records := make([]ImportRecord, 0, len(doc.Itens))
	for _, item := range doc.Itens {
		preco := decimal.Zero
		if s := strings.TrimSpace(item.Preco); s != "" {
			parsed, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("%w: preço inválido %q", ErrMalformedDocument, item.Preco)
			}
			preco = parsed
		}
		records = append(records, ImportRecord{
			Nome:      item.Nome,
			Descricao: item.Descricao,
			Preco:     preco,
			Estoque:   item.Estoque,
			Categoria: item.Categoria,
		})
	}
	return records, nil
}

// ImportProducts faz o upsert dos registros numa única transação: ou o
// arquivo inteiro entra, ou nada entra.
//
// Categoria é resolvida por nome sem diferenciar maiúsculas; se não existir é
// criada com o nome capitalizado. O produto é procurado pelo nome exato: se
// existir, descrição/preço/estoque/categoria são sobrescritos; senão é criado.
// Retorna quantos registros foram efetivados.
func ImportProducts(db *gorm.DB, records []ImportRecord) (int, error) {
	count := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			nome := strings.TrimSpace(rec.Nome)
			if nome == "" {
				continue
			}
			if rec.Preco.IsNegative() || rec.Estoque < 0 {
				return fmt.Errorf("%w: preço/estoque negativo para %q", ErrMalformedDocument, nome)
			}

			var categoryID *uint
			if catName := strings.TrimSpace(rec.Categoria); catName != "" {
				var category models.Category
				err := tx.Where("LOWER(name) = LOWER(?)", catName).First(&category).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					category = models.Category{Name: titleCaser.String(strings.ToLower(catName))}
					if err := tx.Create(&category).Error; err != nil {
						return err
					}
				} else if err != nil {
					return err
				}
				categoryID = &category.ID
			}

			var product models.Product
			err := tx.Where("name = ?", nome).First(&product).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				product = models.Product{
					Name:        nome,
					Description: rec.Descricao,
					Price:       rec.Preco,
					Stock:       rec.Estoque,
					CategoryID:  categoryID,
				}
				if err := tx.Create(&product).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				product.Description = rec.Descricao
				product.Price = rec.Preco
				product.Stock = rec.Estoque
				product.CategoryID = categoryID
				if err := tx.Save(&product).Error; err != nil {
					return err
				}
			}

			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
