package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"compilestrength/internal/agent"
	"compilestrength/internal/auth"
	"compilestrength/internal/config"
	"compilestrength/internal/email"
	"compilestrength/internal/exercise"
	"compilestrength/internal/program"
	"compilestrength/internal/routine"
	"compilestrength/internal/subscription"
	"compilestrength/internal/tools"
	"compilestrength/internal/usage"
	"compilestrength/internal/user"
	"compilestrength/internal/workout"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New wires every domain package onto one gin engine.
func New(db *sqlx.DB, cfg *config.Config, mail *email.Service, model agent.Model) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	subscriptionService := subscription.NewService(subscription.NewRepository(db))
	usageService := usage.NewService(usage.NewRepository(db), subscriptionService, usage.Limits{
		Compiles:     cfg.UsageLimits.Compiles,
		RoutineEdits: cfg.UsageLimits.RoutineEdits,
		AIMessages:   cfg.UsageLimits.AIMessages,
	})
	userService := user.NewService(user.NewRepository(db), cfg.JWTSecret, mail)
	meter := newNotifyingMeter(usageService, userService, mail)

	registry := tools.NewRegistry(routine.NewStamper())
	runner := agent.NewRunner(model, registry, meter, cfg.AgentMaxSteps)

	userHandler := user.NewHandler(userService)
	subscriptionHandler := subscription.NewHandler(subscriptionService, cfg.BillingWebhookSecret)
	usageHandler := usage.NewHandler(usageService, meter)
	chatHandler := agent.NewHandler(runner, meter)
	programHandler := program.NewHandler(program.NewService(program.NewRepository(db), mail))
	exerciseHandler := exercise.NewHandler(exercise.NewRepository(db))
	workoutHandler := workout.NewHandler(workout.NewService(workout.NewRepository(db)))

	router.GET("/health", Health(db, mail))
	router.GET("/metrics", Metrics())

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	router.POST("/billing/webhook", subscriptionHandler.Webhook)
	router.GET("/plans", subscriptionHandler.ListPlans)

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/subscriptions/me", subscriptionHandler.GetMine)
		protected.GET("/subscriptions", subscriptionHandler.ListMine)

		protected.GET("/usage/current", usageHandler.Current)
		protected.GET("/usage/history", usageHandler.History)
		protected.GET("/usage/:kind", usageHandler.Check)
		protected.POST("/usage/:kind/increment", usageHandler.Increment)
		protected.GET("/usage/periods/:id/events", usageHandler.Events)

		protected.POST("/chat", RateLimitMiddleware(cfg.ChatRateLimitRPS, cfg.ChatRateLimitBurst), chatHandler.Chat)
		protected.POST("/save-routine", programHandler.SaveRoutine)
		protected.GET("/programs", programHandler.List)
		protected.GET("/programs/:id", programHandler.Get)

		protected.GET("/exercises", exerciseHandler.List)
		protected.GET("/exercises/:id", exerciseHandler.Get)

		protected.POST("/workouts", workoutHandler.Start)
		protected.GET("/workouts", workoutHandler.List)
		protected.GET("/workouts/active", workoutHandler.Active)
		protected.GET("/workouts/:id", workoutHandler.Get)
		protected.POST("/workouts/:id/sets", workoutHandler.LogSet)
		protected.POST("/workouts/:id/complete", workoutHandler.Complete)

		protected.GET("/analytics/volume", workoutHandler.Volume)
		protected.GET("/analytics/records", workoutHandler.Records)
	}

	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(cfg.JWTSecret), auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/users/:id/usage", usageHandler.UserSummary)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Signature")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
