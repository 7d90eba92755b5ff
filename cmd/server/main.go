package main

import (
	"log"
	"strings"

	"vendas-backend/internal/audit"
	"vendas-backend/internal/auth"
	"vendas-backend/internal/catalog"
	"vendas-backend/internal/config"
	"vendas-backend/internal/dashboard"
	"vendas-backend/internal/database"
	"vendas-backend/internal/models"
	"vendas-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Erro inesperado:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Erro inesperado no servidor",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Auth pública
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Rotas autenticadas
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Categorias
	protected.Get("/categorias", catalog.ListCategoriesHandler())
	protected.Post("/categorias", auth.RequireRole(models.RoleAdmin), catalog.CreateCategoryHandler())
	protected.Put("/categorias/:id", auth.RequireRole(models.RoleAdmin), catalog.UpdateCategoryHandler())
	protected.Delete("/categorias/:id", auth.RequireRole(models.RoleAdmin), catalog.DeleteCategoryHandler())

	// Produtos
	protected.Get("/produtos", catalog.ListProductsHandler())
	protected.Get("/produtos/export", catalog.ExportProductsHandler())
	protected.Post("/produtos/import", auth.RequireRole(models.RoleAdmin), catalog.ImportProductsHandler())
	protected.Get("/produtos/:id", catalog.GetProductHandler())
	protected.Post("/produtos", auth.RequireRole(models.RoleAdmin), catalog.CreateProductHandler())
	protected.Put("/produtos/:id", auth.RequireRole(models.RoleAdmin), catalog.UpdateProductHandler())
	protected.Delete("/produtos/:id", auth.RequireRole(models.RoleAdmin), catalog.DeleteProductHandler())

	// Vendas
	protected.Get("/vendas", sales.ListSalesHandler())
	protected.Get("/vendas/:id", sales.GetSaleHandler())
	protected.Get("/vendas/:id/comprovante", sales.DownloadReceiptHandler())
	protected.Post("/vendas", sales.CreateSaleHandler(cfg))
	protected.Put("/vendas/:id", sales.UpdateSaleHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())

	// Auditoria
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler())

	log.Println("Servidor rodando na porta:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
