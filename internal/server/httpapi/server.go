package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmpavlov/userkeeper/internal/logging"
	"github.com/dmpavlov/userkeeper/internal/server/services"
)

type Server struct {
	address   string
	handler   *Handler
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(address string, logger logging.Logger, service *services.AccountService, secretKey string) *Server {
	return &Server{
		address:   address,
		handler:   NewHandler(service, logger),
		logger:    logger.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
}

// Router wires the routes. Registration and login are open, everything else
// requires a bearer token.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/users", s.handler.Create)
	r.Post("/users/login", s.handler.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireToken(s.jwtSecret))

		r.Get("/users", s.handler.List)
		r.Get("/users/{id}", s.handler.GetByID)
		r.Patch("/users/{id}", s.handler.Update)
		r.Delete("/users/{id}", s.handler.Delete)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
