package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health              *handlers.HealthHandler
	Users               *handlers.UsersHandler
	Authorities         *handlers.AuthoritiesHandler
	Complaints          *handlers.ComplaintsHandler
	AuthorityComplaints *handlers.AuthorityComplaintsHandler
	Catalog             *handlers.CatalogHandler
	AuthMiddleware      *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/authorities/login", cfg.Authorities.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Users.ChangePassword)

	app.Get("/statuses", cfg.Catalog.ListStatuses)
	app.Get("/statuses/:id", cfg.Catalog.GetStatus)
	app.Get("/categories", cfg.Catalog.ListCategories)

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireCitizen())
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Patch("/:id", cfg.Complaints.Update)
	complaints.Delete("/:id", cfg.Complaints.Delete)
	complaints.Post("/:id/evidence", cfg.Complaints.AttachEvidence)
	complaints.Get("/:id/evidence", cfg.Complaints.ListEvidence)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAuthorityRole())
	admin.Get("/complaints", cfg.AuthorityComplaints.List)
	admin.Get("/complaints/:id", cfg.AuthorityComplaints.Get)
	admin.Post("/complaints/:id/status", cfg.AuthorityComplaints.ChangeStatus)
	admin.Get("/complaints/:id/history", cfg.AuthorityComplaints.ListHistory)

	elevated := app.Group("/admin", cfg.AuthMiddleware.Handle,
		auth.RequireAuthorityRole(domain.AuthorityRoleSupervisor, domain.AuthorityRoleAdmin))
	elevated.Delete("/complaints/:id", cfg.AuthorityComplaints.Delete)
	elevated.Post("/categories", cfg.Catalog.CreateCategory)
	elevated.Patch("/categories/:id", cfg.Catalog.UpdateCategory)
}
