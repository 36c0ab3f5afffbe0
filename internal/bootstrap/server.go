package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wanderio/tourbooking/api"
	"github.com/wanderio/tourbooking/config"
	"github.com/wanderio/tourbooking/internal/service/booking"
	"github.com/wanderio/tourbooking/internal/service/catalog"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, catalogSvc catalog.CatalogUseCase, bookingSvc booking.BookingUseCase) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: NewRouter(cfg, catalogSvc, bookingSvc),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, catalogSvc catalog.CatalogUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	api.RegisterValidations()

	router := gin.Default()
	v1 := router.Group("/api/v1")

	api.NewCatalogHandler(catalogSvc).Register(v1)
	api.NewBookingHandler(bookingSvc, cfg.Admin.Token).Register(v1.Group("/bookings"))
	api.NewAdminHandler(bookingSvc).Register(v1.Group("/admin", api.AdminAuth(cfg.Admin.Token)))

	return router
}
