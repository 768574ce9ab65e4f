package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatusServer exposes /healthz and /metrics
type StatusServer struct {
	echo *echo.Echo
	addr string
	log  *zap.SugaredLogger
}

// NewStatusServer builds the server; gatherer supplies the /metrics payload
func NewStatusServer(addr string, gatherer prometheus.Gatherer, log *zap.SugaredLogger) *StatusServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &StatusServer{echo: e, addr: addr, log: log}
}

// Handler is the underlying router, used by tests
func (s *StatusServer) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called
func (s *StatusServer) Start() error {
	s.log.Infof("Status server listening on %s", s.addr)
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
