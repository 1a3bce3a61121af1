// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/internal/metrics"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the screening API over HTTP",
	Long: `Serve starts the HTTP API: provider listing, prompt preview, single-article
screening, batch screening streamed as server-sent events, and search
ingestion into projects. Prometheus metrics are exposed on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	gin.SetMode(cfg.Server.Mode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	providers := newProviders()
	screener := newScreener(providers, m)
	srv := server.New(server.Options{
		Providers:    providers,
		Screener:     screener,
		Orchestrator: screen.NewOrchestrator(screener, st, logger),
		Store:        st,
		Resolver:     newResolver(st, m),
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       logger,
	})
	return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
}
