// Package driver runs the single-threaded event loop that multiplexes
// UDP read-readiness, feeds received datagrams to a rip.Manager, and
// emits the periodic table snapshot.
package driver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jchubb/ripd/internal/rip"
)

const printInterval = time.Second

// SocketSet is the subset of transport.SocketSet the loop needs,
// narrowed to an interface so the loop is testable without real
// sockets.
type SocketSet interface {
	Poll(timeout time.Duration) ([]Datagram, error)
	Close() error
}

// Datagram mirrors transport.Datagram to avoid the driver package
// importing the (Linux-only) transport package directly.
type Datagram struct {
	Port int
	Data []byte
}

// PortManager pairs one input port with the Manager that owns it. A
// single Manager may own more than one input port.
type PortManager struct {
	Port    int
	Manager *rip.Manager
}

// Options configures one Loop run.
type Options struct {
	Sockets     SocketSet
	Managers    []PortManager
	Log         *zap.Logger
	Autotesting bool
	Clock       rip.Clock
}

// Run drives the event loop until ctx is cancelled. Each iteration:
// compute the timeout as the lesser of time-to-next-print and every
// owned Manager's NextTimeout, block on socket readiness, dispatch
// ready datagrams, run each Manager's SendAnyUpdates, and print the
// table snapshot once a second.
func Run(ctx context.Context, opts Options) error {
	byPort := make(map[int]*rip.Manager, len(opts.Managers))
	var managers []*rip.Manager
	seen := make(map[*rip.Manager]bool, len(opts.Managers))
	for _, pm := range opts.Managers {
		byPort[pm.Port] = pm.Manager
		if !seen[pm.Manager] {
			seen[pm.Manager] = true
			managers = append(managers, pm.Manager)
		}
	}

	nextPrint := opts.Clock.Now().Add(printInterval)

	for {
		select {
		case <-ctx.Done():
			return opts.Sockets.Close()
		default:
		}

		now := opts.Clock.Now()
		timeout := nextPrint.Sub(now)
		for _, m := range managers {
			if d := m.NextTimeout(); d < timeout {
				timeout = d
			}
		}
		if timeout < 0 {
			timeout = 0
		}

		datagrams, err := opts.Sockets.Poll(timeout)
		if err != nil {
			opts.Log.Warn("poll error", zap.Error(err))
			continue
		}
		for _, d := range datagrams {
			m, ok := byPort[d.Port]
			if !ok {
				continue
			}
			m.IncomingMessage(d.Data)
		}

		for _, m := range managers {
			m.SendAnyUpdates()
		}

		now = opts.Clock.Now()
		if !now.Before(nextPrint) {
			for _, m := range managers {
				emit(opts.Log, m, opts.Autotesting)
			}
			nextPrint = now.Add(printInterval)
		}
	}
}

func emit(log *zap.Logger, m *rip.Manager, autotesting bool) {
	if autotesting {
		data, err := m.TableList()
		if err != nil {
			log.Warn("failed to render table snapshot", zap.Error(err))
			return
		}
		log.Info(string(data))
		return
	}
	log.Info(m.String())
}
