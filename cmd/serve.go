/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/valpere/peredoc/internal/api"
)

var serveNoHistory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP translation service",
	Long: `Serve the pipeline over HTTP.

Routes:
  GET  /healthz          liveness and backend name
  GET  /api/profiles     available profiles
  POST /api/translate    JSON {text, target_language, profile, custom_terms}
  POST /api/upload       multipart file plus target_language and profile fields
  POST /api/chat         JSON {question, original_text, translated_text, target_language}
  GET  /api/ws           websocket: send one request, receive progress events
                         and the final result`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, closeSvc, err := buildService(ctx, serveNoHistory)
		if err != nil {
			return err
		}
		defer closeSvc()

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.NewRouter(api.NewHandler(svc, logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", cfg.Addr, "backend", svc.Backend())
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	if err := v.BindPFlag("addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not open the database: no stored glossary, no run history")
}
