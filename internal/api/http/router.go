package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Categories     *handlers.CategoriesHandler
	Comments       *handlers.CommentsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/Auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/refresh", cfg.AuthMiddleware.Handle, cfg.Users.Refresh)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Users.Logout)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	staffOnly := auth.RequireRole(domain.RoleAdmin, domain.RoleAgent)

	tickets := api.Group("/Ticket", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/History", cfg.Tickets.ListHistory)
	tickets.Get("/client/:id", cfg.Tickets.ListByClient)
	tickets.Get("/agent/:id", cfg.Tickets.ListByAgent)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.TicketHistory)
	tickets.Put("/:id/status", staffOnly, cfg.StaffTickets.SetStatus)
	tickets.Put("/:id/assign", adminOnly, cfg.StaffTickets.Assign)
	tickets.Patch("/:id", staffOnly, cfg.StaffTickets.Patch)

	categories := api.Group("/Categoria", cfg.AuthMiddleware.Handle)
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Post("/", adminOnly, cfg.Categories.Create)
	categories.Put("/:id", adminOnly, cfg.Categories.Update)
	categories.Delete("/:id", adminOnly, cfg.Categories.Delete)

	comments := api.Group("/Comentario", cfg.AuthMiddleware.Handle)
	comments.Get("/ticket/:id", cfg.Comments.ListByTicket)
	comments.Post("/", cfg.Comments.Add)

	users := api.Group("/User", cfg.AuthMiddleware.Handle)
	users.Get("/role/:role", staffOnly, cfg.Users.ListByRole)

	reports := api.Group("/Report", cfg.AuthMiddleware.Handle)
	reports.Get("/summary", adminOnly, cfg.Reports.Summary)
}
