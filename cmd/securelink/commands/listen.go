package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// listen: accept handshakes and print messages until interrupted.
func listenCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept incoming sessions and print decrypted messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			node, err := appCtx.Node(passphrase, printMessage)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "listening as %s\n", node.Identity.UserID)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return node.Messenger.Run(ctx) })
			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(appCtx.Registry, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					return srv.Close()
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	return cmd
}
