package httpapi

import (
	"net/http"
	"strings"

	"github.com/DoyleJ11/moba-match-engine/internal/metrics"
	"github.com/DoyleJ11/moba-match-engine/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Logger         *zap.Logger
	Metrics        *metrics.Recorder
	Matches        ws.Matches
	Queue          ws.Queue
	Live           Lister
	History        HistoryReader // nil without a database
	AllowedOrigins []string
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/live-matches", LiveMatches(d.Live, d.Logger))
	r.Get("/items", Items)
	if d.History != nil {
		r.Get("/users/{userID}/matches", UserMatches(d.History, d.Logger))
	}
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	r.Get("/ws", ws.Handler(d.Matches, d.Queue, ws.Options{
		Logger:         d.Logger.Named("ws"),
		OriginPatterns: originPatterns(d.AllowedOrigins),
	}))
	return r
}

// originPatterns turns "http://localhost:3000" into the host pattern the
// websocket origin check expects.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, o)
	}
	return out
}
