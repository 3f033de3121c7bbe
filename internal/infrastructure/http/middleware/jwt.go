package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"constructoraicc/gopagos/internal/infrastructure/config"
	httperrors "constructoraicc/gopagos/internal/infrastructure/http"
)

// ContextKeyToken exposes the verified JWT token via request context.
type ContextKeyToken struct{}

const jwksRefreshInterval = 6 * time.Hour

// Signing methods the issuer is known to use. Anything else is rejected
// before signature verification.
var metodosPermitidos = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodRS384.Alg(),
	jwt.SigningMethodRS512.Alg(),
	jwt.SigningMethodPS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// JWTAuthenticator validates Authorization headers against a remote JWKS.
// With Enabled false it is a no-op, which the local environment relies on.
type JWTAuthenticator struct {
	cfg        config.AuthSettings
	log        *slog.Logger
	jwks       keyfunc.Keyfunc
	cancel     context.CancelFunc
	bypassPath map[string]struct{}
}

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	auth := &JWTAuthenticator{
		cfg:        cfg,
		log:        log,
		bypassPath: make(map[string]struct{}, len(cfg.BypassPaths)),
	}
	for _, path := range cfg.BypassPaths {
		if path != "" {
			auth.bypassPath[path] = struct{}{}
		}
	}
	if !cfg.Enabled {
		return auth, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := newJWKS(ctx, cfg.JWKSetURI, log)
	if err != nil {
		cancel()
		return nil, err
	}
	auth.jwks = jwks
	auth.cancel = cancel
	return auth, nil
}

// newJWKS fetches the key set and keeps it refreshed until ctx is cancelled.
func newJWKS(ctx context.Context, uri string, log *slog.Logger) (keyfunc.Keyfunc, error) {
	override := keyfunc.Override{
		RefreshInterval: jwksRefreshInterval,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(_ context.Context, err error) {
				log.Error("no se pudo refrescar el JWKS", "url", url, "error", err)
			}
		},
		HTTPTimeout: 10 * time.Second,
	}
	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{uri}, override)
	if err != nil {
		return nil, fmt.Errorf("cargando JWKS: %w", err)
	}
	return jwks, nil
}

// Middleware enforces JWT validation on inbound requests.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	if !a.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			httperrors.WriteError(w, http.StatusUnauthorized, "Error de Autenticación", []string{"Credenciales de acceso no válidas"}, a.log)
			return
		}

		token, err := jwt.Parse(tokenString, a.jwks.Keyfunc,
			jwt.WithIssuer(a.cfg.IssuerURI),
			jwt.WithLeeway(a.cfg.ClockSkew),
			jwt.WithValidMethods(metodosPermitidos),
		)
		if err != nil || !token.Valid {
			a.log.Warn("token rechazado", "error", err)
			httperrors.WriteError(w, http.StatusUnauthorized, "Error de Autenticación", []string{"Token inválido o expirado"}, a.log)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyToken{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Close stops the background JWKS refresher.
func (a *JWTAuthenticator) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *JWTAuthenticator) shouldBypass(path string) bool {
	_, ok := a.bypassPath[path]
	return ok
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("sin encabezado Authorization")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("encabezado Authorization mal formado")
	}
	return parts[1], nil
}
