package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/haziqazlan/agcutz-barbershop/internal/admin"
	"github.com/haziqazlan/agcutz-barbershop/internal/auth"
	"github.com/haziqazlan/agcutz-barbershop/internal/booking"
	"github.com/haziqazlan/agcutz-barbershop/internal/cache"
	"github.com/haziqazlan/agcutz-barbershop/internal/config"
	"github.com/haziqazlan/agcutz-barbershop/internal/db"
	"github.com/haziqazlan/agcutz-barbershop/internal/middleware"
	"github.com/haziqazlan/agcutz-barbershop/internal/notifications"
	"github.com/haziqazlan/agcutz-barbershop/internal/transport"
	"github.com/haziqazlan/agcutz-barbershop/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected", slog.String("addr", cfg.RedisAddr))
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "agcutz-barbershop",
		}
	}

	mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.AdminNotifyEmail, cfg.BrevoSandbox)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("notify", cfg.AdminNotifyEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	val := validation.New()

	bookingRepo := booking.NewRepository(cols.Appointments)
	var bookingMailer booking.Mailer
	if mailer != nil {
		bookingMailer = mailer
	}
	bookingService := booking.NewService(bookingRepo, bookingMailer, logger, cfg.Timezone, cfg.ServicePrice)
	bookingHandler := booking.NewHandler(bookingService, val, cacheStore, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)

	adminHandler := admin.NewHandler(cols.Users, jwtManager, val, logger, cfg.CookieSecure)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitAppointments, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	adminGate := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		api.Route("/appointments", func(appointments chi.Router) {
			appointments.Get("/available-slots", bookingHandler.GetAvailableSlots)
			appointments.With(bookingLimiter.Middleware).Post("/", bookingHandler.Create)

			appointments.Group(func(protected chi.Router) {
				protected.Use(adminGate)
				protected.Get("/", bookingHandler.AdminList)
				protected.Get("/{id}", bookingHandler.AdminGet)
				protected.Put("/{id}", bookingHandler.AdminUpdateStatus)
				protected.Delete("/{id}", bookingHandler.AdminDelete)
			})
		})

		api.Route("/auth", func(authRoutes chi.Router) {
			authRoutes.Post("/login", adminHandler.Login)
			authRoutes.Post("/refresh", adminHandler.Refresh)
			authRoutes.Post("/logout", adminHandler.Logout)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
