package server

import (
	"log/slog"
	"net/http"
	"time"

	"zzpri-tracker/internal/config"
	"zzpri-tracker/internal/handlers"
	"zzpri-tracker/internal/middleware"
	"zzpri-tracker/internal/models"
	"zzpri-tracker/internal/notify"
	"zzpri-tracker/internal/storage"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	Store    storage.Store
	Reminder *notify.BreachReminder
}

type resource struct {
	list, get, create, update, del, export gin.HandlerFunc
}

// mount registers the list/detail/write/export routes of one record type.
func mount(g *gin.RouterGroup, path string, h resource, writers ...models.UserRole) {
	write := middleware.RequireRole(writers...)

	rg := g.Group(path)
	rg.GET("", h.list)
	rg.GET("/export", h.export)
	rg.GET("/:id", h.get)
	rg.POST("", write, h.create)
	rg.PUT("/:id", write, h.update)
	rg.DELETE("/:id", write, h.del)
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	// rate limits key on ClientIP, so forwarded headers count only from known proxies
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Error("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.MaxMultipartMemory = 8 << 20

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((8 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("zzpri_session", store))

	r.Use(middleware.InjectUser())

	// AUTH
	loginLimiter := middleware.NewIPRateLimiter(2*time.Second, 5)
	r.POST("/login", middleware.RateLimit(loginLimiter), handlers.Login)
	r.POST("/logout", handlers.Logout)
	r.GET("/me", middleware.RequireAuth(), handlers.Me)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())

	security := []models.UserRole{models.RoleAdmin, models.RoleSecurity}
	privacy := []models.UserRole{models.RoleAdmin, models.RoleDPO}

	// NIS2
	mount(api, "/incidents", resource{
		handlers.ListIncidents, handlers.GetIncident, handlers.CreateIncident,
		handlers.UpdateIncident, handlers.DeleteIncident, handlers.ExportIncidents,
	}, security...)
	mount(api, "/cyber-reports", resource{
		handlers.ListCyberReports, handlers.GetCyberReport, handlers.CreateCyberReport,
		handlers.UpdateCyberReport, handlers.DeleteCyberReport, handlers.ExportCyberReports,
	}, security...)
	mount(api, "/devices", resource{
		handlers.ListDevices, handlers.GetDevice, handlers.CreateDevice,
		handlers.UpdateDevice, handlers.DeleteDevice, handlers.ExportDevices,
	}, security...)
	mount(api, "/nis2-controls", resource{
		handlers.ListControls, handlers.GetControl, handlers.CreateControl,
		handlers.UpdateControl, handlers.DeleteControl, handlers.ExportControls,
	}, security...)
	mount(api, "/risks", resource{
		handlers.ListRisks, handlers.GetRisk, handlers.CreateRisk,
		handlers.UpdateRisk, handlers.DeleteRisk, handlers.ExportRisks,
	}, security...)

	// SUPPORT
	mount(api, "/tickets", resource{
		handlers.ListTickets, handlers.GetTicket, handlers.CreateTicket,
		handlers.UpdateTicket, handlers.DeleteTicket, handlers.ExportTickets,
	}, models.RoleAdmin, models.RoleSecurity, models.RoleDPO, models.RoleStaff)

	// GDPR
	mount(api, "/gdpr/breaches", resource{
		handlers.ListBreaches, handlers.GetBreach, handlers.CreateBreach,
		handlers.UpdateBreach, handlers.DeleteBreach, handlers.ExportBreaches,
	}, privacy...)
	reminders := &handlers.BreachReminderHandler{Reminder: deps.Reminder}
	api.POST("/gdpr/breaches/:id/notify-authority",
		middleware.RequireRole(privacy...),
		handlers.NotifyAuthority,
	)
	api.POST("/gdpr/breaches/:id/remind",
		middleware.RequireRole(privacy...),
		reminders.Remind,
	)
	mount(api, "/gdpr/transfers", resource{
		handlers.ListTransfers, handlers.GetTransfer, handlers.CreateTransfer,
		handlers.UpdateTransfer, handlers.DeleteTransfer, handlers.ExportTransfers,
	}, privacy...)

	// WHISTLEBLOWER
	mount(api, "/whistleblower/procedures", resource{
		handlers.ListProcedures, handlers.GetProcedure, handlers.CreateProcedure,
		handlers.UpdateProcedure, handlers.DeleteProcedure, handlers.ExportProcedures,
	}, privacy...)
	mount(api, "/whistleblower/confidants", resource{
		handlers.ListConfidants, handlers.GetConfidant, handlers.CreateConfidant,
		handlers.UpdateConfidant, handlers.DeleteConfidant, handlers.ExportConfidants,
	}, privacy...)

	docs := &handlers.DocumentHandler{Store: deps.Store, MaxBytes: cfg.MaxUploadMB << 20}
	api.GET("/documents", docs.List)
	api.GET("/documents/export", docs.Export)
	api.GET("/documents/:id", docs.Get)
	api.GET("/documents/:id/download", docs.Download)
	api.POST("/documents", middleware.RequireRole(privacy...), docs.Upload)
	api.DELETE("/documents/:id", middleware.RequireRole(privacy...), docs.Delete)

	// OVERVIEW
	api.GET("/dashboard", handlers.GetDashboard)
	api.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleViewer),
		handlers.ListAuditLogs,
	)

	// USERS
	admin := api.Group("/users", middleware.RequireRole(models.RoleAdmin))
	admin.GET("", handlers.ListUsers)
	admin.POST("", handlers.CreateUser)
	admin.DELETE("/:id", handlers.DeleteUser)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
