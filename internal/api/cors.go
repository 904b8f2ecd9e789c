package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// CORSConfig holds the header values sent on every response.
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// DefaultCORSConfig allows everything. The recorder runs on a LAN and the
// browser UI may be served from a different host than the API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		MaxAge:       86400,
	}
}

// headerSetter is the piece of huma.Context and http.ResponseWriter the
// CORS headers need.
type headerSetter func(name, value string)

func (c CORSConfig) apply(set headerSetter) {
	set("Access-Control-Allow-Origin", c.AllowOrigin)
	set("Access-Control-Allow-Methods", strings.Join(c.AllowMethods, ", "))
	set("Access-Control-Allow-Headers", strings.Join(c.AllowHeaders, ", "))
	set("Access-Control-Max-Age", strconv.Itoa(c.MaxAge))
}

// NewCORSMiddleware stamps CORS headers on API responses and short-circuits
// preflight requests that reach a registered route.
func NewCORSMiddleware(config CORSConfig) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		config.apply(ctx.SetHeader)

		if ctx.Method() == http.MethodOptions {
			ctx.SetStatus(http.StatusNoContent)
			return
		}

		next(ctx)
	}
}

// AddCORSHandler answers preflight requests for paths outside the API,
// which huma middleware never sees because routing happens first.
func AddCORSHandler(mux *http.ServeMux, config CORSConfig) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		config.apply(w.Header().Set)
		w.WriteHeader(http.StatusNoContent)
	})
}
