package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jchubb/ripd/internal/config"
	"github.com/jchubb/ripd/internal/driver"
	"github.com/jchubb/ripd/internal/metrics"
	"github.com/jchubb/ripd/internal/rip"
	"github.com/jchubb/ripd/internal/transport"
)

func main() {
	var (
		debug       bool
		autotesting bool
		scale       float64
		metricsAddr string
	)

	root := &cobra.Command{
		Use:   "ripd <config-file>",
		Short: "a RIP v2-variant distance-vector routing daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], debug, autotesting, scale, metricsAddr)
		},
	}
	root.Flags().BoolVarP(&debug, "debug", "d", false, "enable verbose debug lines")
	root.Flags().BoolVar(&autotesting, "autotesting", false, "emit the routing table as JSON once per second")
	root.Flags().Float64Var(&scale, "time-scale", 6, "divides all protocol delays by this multiplier")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, debug, autotesting bool, scale float64, metricsAddr string) error {
	log, err := newLogger(debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	rip.SetScale(scale)

	var recorder rip.Recorder = rip.NopRecorder{}
	if metricsAddr != "" {
		m := metrics.New(prometheus.DefaultRegisterer)
		recorder = m
		go serveMetrics(log, metricsAddr)
	}

	neighbors := make(map[uint16]rip.Neighbor, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		neighbors[uint16(o.RouterID)] = rip.Neighbor{
			RouterID: uint16(o.RouterID),
			Port:     o.Port,
			Metric:   uint32(o.Metric),
		}
	}

	sockets, err := transport.NewSocketSet(cfg.InputPorts)
	if err != nil {
		return fmt.Errorf("binding sockets: %w", err)
	}

	manager := rip.NewManager(uint16(cfg.RouterID), neighbors, rip.SystemClock, sockets, log, recorder)

	var portManagers []driver.PortManager
	for _, p := range cfg.InputPorts {
		portManagers = append(portManagers, driver.PortManager{Port: p, Manager: manager})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return driver.Run(ctx, driver.Options{
		Sockets:     socketSetAdapter{sockets},
		Managers:    portManagers,
		Log:         log,
		Autotesting: autotesting,
		Clock:       rip.SystemClock,
	})
}

// socketSetAdapter bridges transport.SocketSet's concrete Datagram
// type to the driver package's own narrower interface, so driver does
// not need to import the Linux-only transport package.
type socketSetAdapter struct {
	s *transport.SocketSet
}

func (a socketSetAdapter) Poll(timeout time.Duration) ([]driver.Datagram, error) {
	raw, err := a.s.Poll(timeout)
	if err != nil {
		return nil, err
	}
	out := make([]driver.Datagram, len(raw))
	for i, d := range raw {
		out[i] = driver.Datagram{Port: d.Port, Data: d.Data}
	}
	return out, nil
}

func (a socketSetAdapter) Close() error { return a.s.Close() }

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveMetrics(log *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
