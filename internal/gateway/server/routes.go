package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stylefit/internal/gateway/handler/rpc"
	"stylefit/internal/gateway/middleware"
)

func NewMux(sessionHandler *rpc.SessionHandler, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	sessionHandler.Register(mux)
	mux.HandleFunc("/ws/canvas", sessionHandler.HandleCanvasWS)

	// Ops
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Middleware
	return middleware.CORS(mux)
}
