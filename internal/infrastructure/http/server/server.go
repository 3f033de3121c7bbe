// Package server wires the HTTP surface of the payment service.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	paymenthttp "constructoraicc/gopagos/internal/adapters/http/payment"
	submissionhttp "constructoraicc/gopagos/internal/adapters/http/submission"
	"constructoraicc/gopagos/internal/infrastructure/config"
	"constructoraicc/gopagos/internal/infrastructure/http/middleware"
)

// Server hosts the payment and submission endpoints.
type Server struct {
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
	shutdown   config.HTTPSettings
}

// Options are the construction inputs.
type Options struct {
	HTTP       config.HTTPSettings
	Auth       config.AuthSettings
	Logger     *slog.Logger
	Pagos      *paymenthttp.Handler
	Subidas    *submissionhttp.Handler
	AppVersion string
}

// New builds the router and the listener without starting it.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Pagos == nil || opts.Subidas == nil {
		return nil, errors.New("handlers are required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Auth, opts.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.RequestTimeout(opts.HTTP))
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + opts.AppVersion + `"}`))
	})

	r.Route("/api/pagos", func(r chi.Router) {
		r.Post("/flujo", opts.Pagos.Flujo)
		r.Get("/flujo", opts.Pagos.UltimoFlujo)
		r.Get("/candidatos", opts.Pagos.Candidatos)
		r.Get("/cesiones-no-cruzadas", opts.Pagos.CesionesNoCruzadas)
		r.Get("/planilla", opts.Pagos.Planilla)
	})

	r.Route("/api/kame", func(r chi.Router) {
		r.Post("/subir", opts.Subidas.Subir)
		r.Get("/subidas", opts.Subidas.Subidas)
		r.Get("/unidades", opts.Subidas.Unidades)
	})

	return &Server{
		log:  opts.Logger,
		auth: auth,
		httpServer: &http.Server{
			Addr:         opts.HTTP.Address(),
			Handler:      r,
			ReadTimeout:  opts.HTTP.ReadTimeout,
			WriteTimeout: opts.HTTP.WriteTimeout,
			IdleTimeout:  opts.HTTP.IdleTimeout,
		},
		shutdown: opts.HTTP,
	}, nil
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.auth.Close()
		return <-errCh
	}
}
