package handlers

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/onnwee/resep-nusantara/backend/internal/logger"
)

// Profiling serves the runtime profiles from net/http/pprof under prefix
// and records every access for auditing. Mount it behind admin auth.
func Profiling(prefix string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"/", pprof.Index)
	mux.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"/profile", pprof.Profile)
	mux.HandleFunc(prefix+"/symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"/trace", pprof.Trace)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "profiling endpoint accessed",
			"endpoint", strings.TrimPrefix(r.URL.Path, prefix),
			"remote_addr", r.RemoteAddr,
			"type", "security_audit")
		// pprof.Index only resolves named profiles under /debug/pprof/.
		if name, ok := strings.CutPrefix(r.URL.Path, prefix+"/"); ok && name != "" && !isPprofRoute(name) {
			pprof.Handler(name).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func isPprofRoute(name string) bool {
	switch name {
	case "cmdline", "profile", "symbol", "trace":
		return true
	}
	return false
}
