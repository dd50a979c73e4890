package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/clock"
	"github.com/authcore/authcore/logging"
	"github.com/authcore/authcore/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const defaultMaxBodyBytes = 4 << 10

// Options configures NewRouter. The zero value is usable.
type Options struct {
	// Cookies defaults to authcore.DefaultConfig().Cookie.
	Cookies authcore.CookieConfig
	Clock   clock.Clock
	Logger  *slog.Logger
	// Metrics is mounted at /metrics when set.
	Metrics      http.Handler
	MaxBodyBytes int64
	// TrustProxy enables X-Forwarded-For / X-Real-IP for the audited client address.
	TrustProxy bool
}

func (o Options) withDefaults() Options {
	if o.Cookies.AccessName == "" || o.Cookies.RefreshName == "" {
		o.Cookies = authcore.DefaultConfig().Cookie
	}
	if o.Clock == nil {
		o.Clock = clock.System{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	return o
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(engine Engine, opts Options) http.Handler {
	opts = opts.withDefaults()
	h := NewHandler(engine, opts)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(requestContext(opts.Logger))
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.GuardWithErrorHandler(engine, opts.Cookies, writeError))
		r.Get("/users/me", h.Me)
	})

	r.Get("/healthz", h.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}

// requestContext puts a request-scoped logger and the client address into the context.
func requestContext(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r.RemoteAddr)

			l := base.With(
				slog.String("request_id", chimw.GetReqID(ctx)),
				slog.String("ip", ip),
			)
			ctx = logging.WithLogger(ctx, l)
			ctx = authcore.WithClientIP(ctx, ip)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logging.FromContext(r.Context()).LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		)
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
