package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-raas/internal/config"
)

const shutdownGrace = 10 * time.Second

const addrFlag = "addr"

func newServeCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		addrFlag: &cobraflags.StringFlag{
			Name:  addrFlag,
			Value: "",
			Usage: "Listen address, overrides HTTP_ADDR",
		},
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveCommand(cmd, flags[addrFlag].GetString())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

// listenAddr prefers the --addr flag over the configured HTTP_ADDR.
func listenAddr(cfg *config.Config, flagAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}
	return cfg.HTTPAddr
}

func serveCommand(cmd *cobra.Command, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.AutoMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
		a.sugar.Info("schema ensured")
	}

	handler, err := a.handler(ctx)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              listenAddr(a.cfg, addr),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		a.sugar.Warnw("http server shutdown failed", "err", err)
	}
	a.sugar.Info("goodbye")
	return nil
}
