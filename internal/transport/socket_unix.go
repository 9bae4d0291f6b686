//go:build linux

// Package transport provides the single-threaded, poll()-based UDP
// socket multiplexing the event driver needs: one non-blocking socket
// per configured input port, all serviced from one OS thread with no
// goroutine fan-out across sockets.
package transport

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const maxDatagram = 504

// SocketSet owns one bound, non-blocking UDP socket per input port
// plus an eventfd-style wake pipe used to interrupt a blocked Poll
// call on Close.
type SocketSet struct {
	ports   []int
	fds     []int
	pollFds []unix.PollFd
	wakeFd  int
}

// NewSocketSet binds a non-blocking UDP socket to 127.0.0.1:port for
// every port in ports.
func NewSocketSet(ports []int) (*SocketSet, error) {
	s := &SocketSet{ports: ports}
	for _, port := range ports {
		fd, err := bindLoopbackUDP(port)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("transport: binding port %d: %w", port, err)
		}
		s.fds = append(s.fds, fd)
	}

	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("transport: eventfd: %w", err)
	}
	s.wakeFd = efd

	s.pollFds = make([]unix.PollFd, 0, len(s.fds)+1)
	for _, fd := range s.fds {
		s.pollFds = append(s.pollFds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	s.pollFds = append(s.pollFds, unix.PollFd{Fd: int32(s.wakeFd), Events: unix.POLLIN})
	return s, nil
}

func bindLoopbackUDP(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	addr := &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Datagram is one received UDP payload and the input port it arrived
// on, so the driver knows which Manager should see it.
type Datagram struct {
	Port int
	Data []byte
}

// Poll blocks up to timeout for read-readiness across every owned
// socket, returning one Datagram per ready socket (at most one read
// per socket per call, matching the driver's per-tick fairness). A
// negative timeout blocks indefinitely; Close interrupts a blocked
// call immediately.
func (s *SocketSet) Poll(timeout time.Duration) ([]Datagram, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	for i := range s.pollFds {
		s.pollFds[i].Revents = 0
	}

	n, err := unix.Poll(s.pollFds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("transport: poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	if s.pollFds[len(s.pollFds)-1].Revents&unix.POLLIN != 0 {
		var drain [8]byte
		unix.Read(s.wakeFd, drain[:])
		return nil, nil
	}

	var datagrams []Datagram
	buf := make([]byte, maxDatagram)
	for i, pfd := range s.pollFds[:len(s.fds)] {
		if pfd.Revents&unix.POLLIN == 0 {
			continue
		}
		read, _, err := unix.Recvfrom(s.fds[i], buf, 0)
		if err != nil {
			continue
		}
		data := make([]byte, read)
		copy(data, buf[:read])
		datagrams = append(datagrams, Datagram{Port: s.ports[i], Data: data})
	}
	return datagrams, nil
}

// SendTo writes data to 127.0.0.1:port using any owned socket; the
// first socket in the set is reused for all outbound sends, matching
// the "any input socket may be reused for sending" allowance.
func (s *SocketSet) SendTo(port int, data []byte) error {
	if len(s.fds) == 0 {
		return fmt.Errorf("transport: no sockets available to send from")
	}
	addr := &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
	return unix.Sendto(s.fds[0], data, 0, addr)
}

// Close releases every owned socket and unblocks any goroutine parked
// in Poll.
func (s *SocketSet) Close() error {
	if s.wakeFd != 0 {
		var one [8]byte
		one[0] = 1
		unix.Write(s.wakeFd, one[:])
		unix.Close(s.wakeFd)
	}
	for _, fd := range s.fds {
		unix.Close(fd)
	}
	return nil
}
