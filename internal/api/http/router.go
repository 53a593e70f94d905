package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleRequester, domain.RoleAdmin))
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:code", cfg.Tickets.GetTicket)
	tickets.Patch("/:code", cfg.Tickets.UpdateTicket)
	tickets.Post("/:code/cancel", cfg.Tickets.CancelTicket)
	tickets.Post("/:code/feedback", cfg.Tickets.SubmitFeedback)

	staff := app.Group("/staff/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleStaff))
	staff.Get("", cfg.StaffTickets.ListAssigned)
	staff.Post("/:code/start", cfg.StaffTickets.StartWork)
	staff.Post("/:code/resolve", cfg.StaffTickets.ResolveTicket)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/tickets", cfg.AdminTickets.ListAll)
	admin.Post("/tickets/:code/assign/auto", cfg.AdminTickets.AssignAuto)
	admin.Post("/tickets/:code/assign", cfg.AdminTickets.AssignManual)
	admin.Post("/tickets/:code/cancel", cfg.AdminTickets.CancelTicket)
	admin.Post("/tickets/:code/escalate", cfg.AdminTickets.EscalateTicket)
	admin.Get("/departments/:code/workload", cfg.AdminTickets.StaffWorkload)
	admin.Post("/sweep", cfg.AdminTickets.TriggerSweep)
}
