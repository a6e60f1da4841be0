package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo *echo.Echo
	addr string
	log  *slog.Logger
}

func NewServer(addr string, handlers *ScheduleHandlers, socket *SocketHandler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/api/days", handlers.GetDays)
	e.GET("/api/appointments", handlers.GetAppointments)
	e.PUT("/api/appointments/:id", handlers.PutAppointment)
	e.DELETE("/api/appointments/:id", handlers.DeleteAppointment)
	e.GET("/api/interviewers", handlers.GetInterviewers)
	e.GET("/api/debug/reset", handlers.DebugReset)
	e.GET("/ws", socket.Serve)

	return &Server{
		echo: e,
		addr: addr,
		log:  log.With(slog.String("component", "web.server")),
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	s.log.Info("http server listening", slog.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
