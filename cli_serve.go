package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"library-lending/api"
	"library-lending/internal/config"
	"library-lending/internal/logger"
)

func (a *app) serveCmd() *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := a.cfg.Server
			if cmd.Flags().Changed("host") {
				srv.Host = host
			}
			if cmd.Flags().Changed("port") {
				srv.Port = port
			}
			if a.cfg.Auth.JWTSecret == config.Default().Auth.JWTSecret {
				a.log.Warn("using the built-in JWT secret; set LIBRARY_AUTH_JWT_SECRET")
			}
			if logger.ParseLevel(a.cfg.Log.Level) != logger.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tokens := api.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
			router := api.NewRouter(a.mgr, tokens, a.log)
			return api.Serve(ctx, srv.Addr(), router, srv.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides LIBRARY_SERVER_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides LIBRARY_SERVER_PORT)")
	return cmd
}
