package main

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/activity"
	"github.com/rpattn/vendorfair/internal/auth"
	"github.com/rpattn/vendorfair/internal/export"
	"github.com/rpattn/vendorfair/internal/ingestion"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/middleware"
	"github.com/rpattn/vendorfair/internal/registration"
	"github.com/rpattn/vendorfair/internal/verification"
)

type services struct {
	registration *registration.Service
	verification *verification.Service
	ingestion    *ingestion.Service
	export       *export.Service
	recorder     *activity.Recorder
	metrics      *metrics.FairMetrics
}

func newRouter(svc services, allowedOrigins []string, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/registrations", registration.NewHTTPHandler(svc.registration))
	mux.Handle("/vendors", middleware.DataLoaderMiddleware(svc.verification)(verification.NewSearchHandler(svc.verification)))
	mux.Handle("/verifications", verification.NewHTTPHandler(svc.verification))
	mux.Handle("/imports", ingestion.NewHTTPHandler(svc.ingestion))
	mux.Handle("/exports/", export.NewHTTPHandler(svc.export))
	mux.Handle("/activity", activity.NewHTTPHandler(svc.recorder))
	mux.Handle("/metrics", svc.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: false,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", auth.OperatorHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", middleware.RequestIDHeader},
	})

	return corsHandler.Handler(middleware.LoggingMiddleware(logger)(middleware.OperatorMiddleware(mux)))
}
