package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/httpapi"
	"github.com/MimeLyc/localcat/internal/service"
	"github.com/MimeLyc/localcat/pkg/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups and memory updates over a JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8347", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, _, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(svc)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(serveAddr)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", serveAddr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return service.WrapError(err, service.ErrConfig, "listen").WithContext("addr", serveAddr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown failed: %v", err)
	}
	log.Info("Server stopped")
	return nil
}
