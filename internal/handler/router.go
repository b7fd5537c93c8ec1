package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"library-api/internal/domain/user"
	"library-api/internal/handler/api"
	"library-api/internal/handler/middleware"
	"library-api/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Auth        *api.AuthHandler
	Book        *api.BookHandler
	Borrow      *api.BorrowHandler
	Reservation *api.ReservationHandler
	User        *api.UserHandler
	Analytics   *api.AnalyticsHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, handlers Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, handlers, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staffOnly := authMiddleware.RequireRoleAtLeast(user.RoleStaff)
	adminOnly := authMiddleware.RequireRoleAtLeast(user.RoleAdmin)

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/register", Handler: h.Auth.Register},
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
				{Method: http.MethodPost, Path: "/refresh", Handler: h.Auth.Refresh},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: h.Auth.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: h.Auth.Me},
			})
		}

		books := apiGroup.Group("/books")
		books.Use(authMiddleware.RequireAuth())
		{
			addRoutes(books, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Book.List},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Book.Get},
				{Method: http.MethodPost, Path: "", Handler: h.Book.Create, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPatch, Path: "/:id", Handler: h.Book.Update, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPatch, Path: "/:id/copies", Handler: h.Book.AdjustCopies, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodDelete, Path: "/:id", Handler: h.Book.Archive, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		borrows := apiGroup.Group("/borrows")
		borrows.Use(authMiddleware.RequireAuth())
		{
			addRoutes(borrows, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Borrow.Checkout},
				{Method: http.MethodGet, Path: "", Handler: h.Borrow.List},
				// Registered before /:id so gin does not treat "overdue" as an ID
				{Method: http.MethodGet, Path: "/overdue", Handler: h.Borrow.ListOverdue, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Borrow.Get},
				{Method: http.MethodPost, Path: "/:id/renew", Handler: h.Borrow.Renew},
				{Method: http.MethodPost, Path: "/:id/return", Handler: h.Borrow.Return, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		reservations := apiGroup.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Reservation.Create},
				{Method: http.MethodGet, Path: "", Handler: h.Reservation.List},
				{Method: http.MethodDelete, Path: "/:id", Handler: h.Reservation.Cancel},
				{Method: http.MethodPost, Path: "/expire-sweep", Handler: h.Reservation.ExpireSweep, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		users := apiGroup.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			addRoutes(users, []route{
				{Method: http.MethodGet, Path: "", Handler: h.User.List, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPatch, Path: "/:id/role", Handler: h.User.ChangeRole, Mw: []gin.HandlerFunc{adminOnly}},
				{Method: http.MethodPatch, Path: "/:id/deactivate", Handler: h.User.Deactivate, Mw: []gin.HandlerFunc{adminOnly}},
			})
		}

		analytics := apiGroup.Group("/analytics")
		analytics.Use(authMiddleware.RequireAuth(), staffOnly)
		{
			addRoutes(analytics, []route{
				{Method: http.MethodGet, Path: "/dashboard", Handler: h.Analytics.Dashboard},
				{Method: http.MethodGet, Path: "/activity", Handler: h.Analytics.RecentActivity},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
