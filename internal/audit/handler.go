package audit

import (
	"strconv"

	"vendas-backend/internal/database"
	"vendas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=&page=&limit=
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 50
		if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 1 {
			offset = (v - 1) * limit
		}

		dbq := database.DB.Model(&models.AuditLog{})
		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}

		var total int64
		dbq.Count(&total)

		var logs []models.AuditLog
		if err := dbq.Order("created_at desc").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os logs")
		}

		return c.JSON(fiber.Map{
			"items": logs,
			"total": total,
			"limit": limit,
		})
	}
}
