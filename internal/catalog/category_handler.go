package catalog

import (
	"fmt"
	"strings"

	"vendas-backend/internal/audit"
	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryRequest struct {
	Name string `json:"name"`
}

// GET /api/categorias
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as categorias")
		}
		return c.JSON(categories)
	}
}

// POST /api/categorias (admin)
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome é obrigatório")
		}

		var existing models.Category
		if err := database.DB.Where("LOWER(name) = LOWER(?)", body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Já existe uma categoria com esse nome")
		}

		category := models.Category{Name: body.Name}
		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar a categoria")
		}

		userID, userName := auditUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "category",
			EntityID:    category.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Categoria criada: %s", category.Name),
			After:       category,
		})

		return c.Status(fiber.StatusCreated).JSON(category)
	}
}

// PUT /api/categorias/:id (admin)
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var category models.Category
		if err := database.DB.First(&category, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Categoria não encontrada")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome não pode ficar vazio")
		}

		var existing models.Category
		if err := database.DB.
			Where("LOWER(name) = LOWER(?) AND id <> ?", body.Name, category.ID).
			First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Já existe uma categoria com esse nome")
		}

		category.Name = body.Name
		if err := database.DB.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar a categoria")
		}

		return c.JSON(category)
	}
}

// DELETE /api/categorias/:id (admin)
// Remover a categoria não remove os produtos: eles ficam sem categoria.
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var category models.Category
		if err := database.DB.First(&category, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Categoria não encontrada")
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível iniciar a operação")
		}

		if err := tx.Model(&models.Product{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível desvincular os produtos")
		}

		if err := tx.Delete(&category).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível remover a categoria")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível concluir a operação")
		}

		userID, userName := auditUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "category",
			EntityID:    category.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Categoria removida: %s", category.Name),
			Before:      category,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
