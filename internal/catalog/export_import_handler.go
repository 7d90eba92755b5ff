package catalog

import (
	"errors"
	"fmt"
	"io"

	"vendas-backend/internal/audit"
	"vendas-backend/internal/auth"
	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/produtos/export?format=json|xml|txt|xlsx&categoria_id=
func ExportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := c.Query("format", "json")

		exporter, err := GetExporter(format)
		if err != nil {
			// formato desconhecido é erro do cliente, não do servidor
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}

		produtos, err := CollectProducts(database.DB, c.Query("categoria_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível carregar os produtos")
		}

		data, err := exporter.Export(produtos)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gerar o arquivo")
		}

		c.Set(fiber.HeaderContentType, exporter.ContentType())
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exporter.FileName()))
		return c.Send(data)
	}
}

// POST /api/produtos/import
// Upload multipart no campo "file"; a extensão (.json/.xml) define o parser.
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Arquivo não enviado (campo 'file')")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível abrir o arquivo")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível ler o arquivo")
		}

		records, err := ParseImportFile(fileHeader.Filename, data)
		if err != nil {
			if errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrMalformedDocument) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Erro ao processar o arquivo")
		}

		count, err := ImportProducts(database.DB, records)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Erro ao importar os produtos")
		}

		if userID, ok := c.Locals(auth.CtxUserIDKey).(uint); ok {
			var user models.User
			_ = database.DB.First(&user, userID).Error
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    user.Name,
				EntityType:  "product",
				Action:      models.AuditActionImport,
				Description: fmt.Sprintf("Import de catálogo: %d produtos (%s)", count, fileHeader.Filename),
			})
		}

		return c.JSON(fiber.Map{
			"importados": count,
			"mensagem":   fmt.Sprintf("%d produtos importados com sucesso", count),
		})
	}
}
