package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/handler"
	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Orders      *handler.OrderHandler
	AdminOrders *handler.AdminOrderHandler
	Cart        *handler.CartHandler
	Catalog     *handler.CatalogHandler
	AuditLogs   *handler.AdminAuditLogHandler
}

// New はルーティング済みのechoを返す
func New(jwtSecret string, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	h.Catalog.RegisterRoutes(e, jwtSecret)
	h.Cart.RegisterRoutes(e, jwtSecret)
	h.Orders.RegisterRoutes(e, jwtSecret)
	h.AdminOrders.RegisterRoutes(e, jwtSecret)
	h.AuditLogs.RegisterRoutes(e, jwtSecret)

	return e
}

// Run はctxがキャンセルされるまで待ち受けて、止まるときは処理中のリクエストを待つ
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
