package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	services.Handler.RegisterRoutes(mux)
	setupHealthCheck(mux)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
