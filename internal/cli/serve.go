package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mentions/internal/rpc"
)

// defaultServeAddr matches the port of the default authority endpoint.
const defaultServeAddr = ":5052"

// shutdownTimeout bounds how long in-flight requests get on shutdown.
const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr, store string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /execute, /rpc and /health over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.attachLedger()
			if err != nil {
				return err
			}
			defer ledger.Detach()

			exec, err := a.newExecutor(cmd, ledger, store)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := log.New(cmd.ErrOrStderr(), "mentions: ", log.LstdFlags)
			srv := &http.Server{
				Addr:              addr,
				Handler:           rpc.NewServer(exec, ledger, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			if err := serve(ctx, srv, logger); err != nil {
				return sysError("serve: %s", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().StringVar(&store, "store", storeLocal, "where prior blocks are read from: local or ipfs")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Printf("shutting down")
	return srv.Shutdown(shutdownCtx)
}
