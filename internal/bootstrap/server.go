package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Domenick1991/ticketqueue/api"
	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/middleware"
	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/Domenick1991/ticketqueue/internal/service/availability"
	"github.com/Domenick1991/ticketqueue/internal/service/waitlist"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

const shutdownTimeout = 5 * time.Second

type Services struct {
	Waitlist     waitlist.WaitlistUseCase
	Admission    admission.AdmissionUseCase
	Availability availability.AvailabilityUseCase
	Sweeper      api.Sweeper
}

// Run serves the HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http: listening on %s", cfg.HTTP.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/ticketqueue.swagger.json"))))
	}

	v1 := router.Group("/v1")
	api.NewEventHandler(svc.Availability).Register(v1)

	authed := v1.Group("", middleware.JWTAuth(cfg.Auth.JWTSecret))
	api.NewWaitlistHandler(svc.Waitlist).Register(authed)
	api.NewReservationHandler(svc.Admission).Register(authed)

	admin := v1.Group("/admin", middleware.JWTAuth(cfg.Auth.JWTSecret), middleware.RequireRole(middleware.RoleAdmin))
	api.NewAdminHandler(svc.Admission, svc.Waitlist, svc.Sweeper).Register(admin)

	return router
}
