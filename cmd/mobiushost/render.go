package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
)

type renderOptions struct {
	script string
	flavor string
	host   string
	output string
	listen string
	quiet  bool
}

// CreateRenderCmd creates the render command.
func CreateRenderCmd(g *globalOptions) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scripted transport through the metronome",
		Long: `Renders the metronome engine in a VST or AU adapter while a scripted host ` +
			`plays, stops and relocates its transport. Prints every beat the adapter detects ` +
			`and optionally writes the output to a WAV file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			profiles, err := g.hostProfiles()
			if err != nil {
				return err
			}
			script, err := o.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			s := &Session{
				Script:   script,
				Profiles: profiles,
				Logger:   logger,
				Registry: reg,
				WAV:      o.output,
			}
			if !o.quiet {
				s.Events = cmd.OutOrStdout()
			}

			res, err := s.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s via %q (profile %s): %d blocks, %d frames, %d beats, %d bars, %d midi events, %d parameter exports, %d rejected\n",
				script.Flavor, script.Host, res.Profile, res.Blocks, res.Frames, res.Beats, res.Bars, res.MIDI, res.Exports, res.Rejected)

			if o.listen == "" {
				return nil
			}
			return serveMetrics(ctx, o.listen, reg, logger)
		},
	}
	cmd.Flags().StringVarP(&o.script, "script", "s", "", "Transport script (TOML); the built in script when empty")
	cmd.Flags().StringVar(&o.flavor, "flavor", "", "Override the script flavor (vst, au)")
	cmd.Flags().StringVar(&o.host, "host", "", "Override the host product name")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write the first output port to a WAV file")
	cmd.Flags().StringVar(&o.listen, "listen", "", "Serve metrics on this address after rendering, until interrupted")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "Do not print beats")
	return cmd
}

func (o *renderOptions) load() (*Script, error) {
	var (
		s   *Script
		err error
	)
	if o.script == "" {
		s = DefaultScript()
	} else if s, err = LoadScript(o.script); err != nil {
		return nil, err
	}
	if o.flavor != "" {
		s.Flavor = o.flavor
	}
	if o.host != "" {
		s.Host = o.host
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// serveMetrics exposes reg until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *debug.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("serving metrics on http://%s/metrics", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
