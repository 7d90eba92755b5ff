package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"vendas-backend/internal/audit"
	"vendas-backend/internal/auth"
	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *uint           `json:"category_id"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *uint            `json:"category_id"`
}

// Helper: usuário autenticado para o log de auditoria
func auditUser(c *fiber.Ctx) (uint, string) {
	userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
	if !ok {
		return 0, ""
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return userID, ""
	}
	return userID, user.Name
}

// GET /api/produtos?categoria_id=&q=&page=&limit=
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})

		if categoriaID := c.Query("categoria_id"); categoriaID != "" {
			dbq = dbq.Where("category_id = ?", categoriaID)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}

		limit := 50
		if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 1 {
			offset = (v - 1) * limit
		}

		var total int64
		dbq.Count(&total)

		var products []models.Product
		if err := dbq.Preload("Category").Order("name asc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os produtos")
		}

		return c.JSON(fiber.Map{
			"items": products,
			"total": total,
			"limit": limit,
		})
	}
}

// GET /api/produtos/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var product models.Product
		if err := database.DB.Preload("Category").First(&product, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}
		return c.JSON(product)
	}
}

// POST /api/produtos (admin)
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome é obrigatório")
		}
		if body.Price.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Preço não pode ser negativo")
		}
		if body.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Estoque não pode ser negativo")
		}

		if body.CategoryID != nil {
			var category models.Category
			if err := database.DB.First(&category, *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Categoria não encontrada")
			}
		}

		var existing models.Product
		if err := database.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Já existe um produto com esse nome")
		}

		p := models.Product{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			Stock:       body.Stock,
			CategoryID:  body.CategoryID,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o produto")
		}

		userID, userName := auditUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Produto criado: %s", p.Name),
			After:       p,
		})

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// PUT /api/produtos/:id (admin)
// O estoque por aqui é um acerto manual de cadastro; baixas e devoluções de
// venda passam sempre pela facade de vendas.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}
		before := p

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Nome não pode ficar vazio")
			}
			p.Name = name
		}
		if body.Description != nil {
			p.Description = *body.Description
		}
		if body.Price != nil {
			if body.Price.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Preço não pode ser negativo")
			}
			p.Price = *body.Price
		}
		if body.Stock != nil {
			if *body.Stock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Estoque não pode ser negativo")
			}
			p.Stock = *body.Stock
		}
		if body.CategoryID != nil {
			if *body.CategoryID == 0 {
				p.CategoryID = nil
			} else {
				var category models.Category
				if err := database.DB.First(&category, *body.CategoryID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Categoria não encontrada")
				}
				p.CategoryID = body.CategoryID
			}
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o produto")
		}

		userID, userName := auditUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Produto atualizado: %s", p.Name),
			Before:      before,
			After:       p,
		})

		return c.JSON(p)
	}
}

// DELETE /api/produtos/:id (admin)
// Produto referenciado por item de venda não pode ser removido.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}

		var itemCount int64
		database.DB.Model(&models.SaleItem{}).Where("product_id = ?", p.ID).Count(&itemCount)
		if itemCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Produto vinculado a %d item(ns) de venda e não pode ser removido", itemCount))
		}

		if err := database.DB.Delete(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível remover o produto")
		}

		userID, userName := auditUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Produto removido: %s", p.Name),
			Before:      p,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
