package sales

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vendas-backend/internal/audit"
	"vendas-backend/internal/auth"
	"vendas-backend/internal/config"
	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateSaleRequest struct {
	Client string          `json:"client"`
	Status string          `json:"status"`
	Items  []LineItemDraft `json:"items"`
}

type UpdateSaleRequest struct {
	Client *string `json:"client"`
	Status *string `json:"status"`
}

// Helper: usuário autenticado para o log de auditoria
func getUserInfo(c *fiber.Ctx) (uint, string) {
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

// Mapeia erros de negócio da facade para respostas HTTP
func businessError(err error) error {
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) {
		return fiber.NewError(fiber.StatusBadRequest, "Erro ao salvar a venda: "+insufficient.Error())
	}
	if errors.Is(err, ErrNoLineItems) {
		return fiber.NewError(fiber.StatusBadRequest, "Erro ao salvar a venda: "+ErrNoLineItems.Error())
	}
	if errors.Is(err, ErrDuplicateItem) {
		return fiber.NewError(fiber.StatusBadRequest, "Erro ao salvar a venda: "+ErrDuplicateItem.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Erro ao salvar a venda")
}

// POST /api/vendas
// Aceita JSON ou multipart/form-data (campos client, status, items + arquivo
// "comprovante"). O comprovante é gravado uma única vez e nunca alterado.
func CreateSaleHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		receiptPath := ""

		contentType := string(c.Request().Header.ContentType())
		if strings.HasPrefix(contentType, "multipart/form-data") {
			body.Client = strings.TrimSpace(c.FormValue("client"))
			body.Status = c.FormValue("status")
			if itemsJSON := c.FormValue("items"); itemsJSON != "" {
				if err := json.Unmarshal([]byte(itemsJSON), &body.Items); err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Campo 'items' não é um JSON válido")
				}
			}

			if fileHeader, err := c.FormFile("comprovante"); err == nil {
				if err := os.MkdirAll(cfg.ComprovantePath, 0o755); err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível preparar a pasta de comprovantes")
				}
				fileName := uuid.New().String() + filepath.Ext(fileHeader.Filename)
				receiptPath = filepath.Join(cfg.ComprovantePath, fileName)
				if err := c.SaveFile(fileHeader, receiptPath); err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível salvar o comprovante")
				}
			}
		} else {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
			}
			body.Client = strings.TrimSpace(body.Client)
		}

		if body.Client == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Cliente é obrigatório")
		}

		status := models.StatusPendente
		if body.Status != "" {
			status = models.SaleStatus(strings.ToUpper(body.Status))
			if !status.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Status inválido (PENDENTE, PAGA ou CANCELADA)")
			}
		}

		sale := models.Sale{
			Date:        time.Now(),
			Client:      body.Client,
			Status:      status,
			ReceiptPath: receiptPath,
		}

		if err := CreateSale(database.DB, &sale, body.Items); err != nil {
			// Venda não entrou: o comprovante órfão não deve ficar no disco
			if receiptPath != "" {
				_ = os.Remove(receiptPath)
			}
			return businessError(err)
		}

		userID, userName := getUserInfo(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Venda registrada: %s (total %s)", sale.Client, sale.Total.StringFixed(2)),
			After:       sale,
		})

		var created models.Sale
		if err := database.DB.Preload("Items.Product").First(&created, sale.ID).Error; err != nil {
			return c.Status(fiber.StatusCreated).JSON(sale)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GET /api/vendas?page=&limit=
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 10
		if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 1 {
			offset = (v - 1) * limit
		}

		var total int64
		database.DB.Model(&models.Sale{}).Count(&total)

		var vendas []models.Sale
		if err := database.DB.
			Preload("Items.Product").
			Order("date desc").
			Limit(limit).
			Offset(offset).
			Find(&vendas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as vendas")
		}

		return c.JSON(fiber.Map{
			"items": vendas,
			"total": total,
			"limit": limit,
		})
	}
}

// GET /api/vendas/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.Preload("Items.Product").First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venda não encontrada")
		}
		return c.JSON(sale)
	}
}

// PUT /api/vendas/:id
// Só o cabeçalho da venda muda depois da criação (cliente e status); os itens
// são imutáveis. A troca de status passa pela facade para ajustar o estoque.
func UpdateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venda não encontrada")
		}

		var body UpdateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		oldStatus := sale.Status

		if body.Status != nil {
			newStatus := models.SaleStatus(strings.ToUpper(*body.Status))
			if !newStatus.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Status inválido (PENDENTE, PAGA ou CANCELADA)")
			}
			if err := UpdateSaleStatus(database.DB, &sale, oldStatus, newStatus); err != nil {
				return businessError(err)
			}
		}

		if body.Client != nil {
			client := strings.TrimSpace(*body.Client)
			if client == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Cliente não pode ficar vazio")
			}
			sale.Client = client
			if err := database.DB.Model(&models.Sale{}).
				Where("id = ?", sale.ID).
				UpdateColumn("client", client).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar a venda")
			}
		}

		if oldStatus != sale.Status {
			userID, userName := getUserInfo(c)
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Status da venda %d: %s → %s", sale.ID, oldStatus, sale.Status),
				Before:      fiber.Map{"status": oldStatus},
				After:       fiber.Map{"status": sale.Status},
			})
		}

		var updated models.Sale
		if err := database.DB.Preload("Items.Product").First(&updated, sale.ID).Error; err != nil {
			return c.JSON(sale)
		}
		return c.JSON(updated)
	}
}

// GET /api/vendas/:id/comprovante
func DownloadReceiptHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venda não encontrada")
		}
		if sale.ReceiptPath == "" {
			return fiber.NewError(fiber.StatusNotFound, "Venda não tem comprovante")
		}
		if _, err := os.Stat(sale.ReceiptPath); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Arquivo do comprovante não encontrado")
		}
		return c.Download(sale.ReceiptPath)
	}
}
