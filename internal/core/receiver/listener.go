package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Pause after a transient receive error before trying again.
const receiveRetryDelay = time.Second

// bindUDP binds an IPv4 UDP socket with SO_REUSEADDR set, so a restart can
// reclaim the port immediately.
func bindUDP(port int) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// CheckPortAvailable reports whether the UDP port can be bound right now. It
// is used to surface "port in use" before the listener is started.
func CheckPortAvailable(port int) error {
	conn, err := bindUDP(port)
	if err != nil {
		return fmt.Errorf("UDP port %d is not available: %w", port, err)
	}
	return conn.Close()
}

type datagramHandler func(payload []byte, addr *net.UDPAddr)

// listener runs the receive loop over an already-bound socket. Each iteration
// polls with a bounded read deadline so cancellation is observed between
// receives; a deadline expiry with no data is not an error.
type listener struct {
	conn    *net.UDPConn
	logger  *logrus.Logger
	handle  datagramHandler
	poll    time.Duration
	bufSize int
}

func (l *listener) run(ctx context.Context) {
	buf := make([]byte, l.bufSize)

	for {
		if ctx.Err() != nil {
			return
		}

		l.conn.SetReadDeadline(time.Now().Add(l.poll))
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			l.logger.WithError(err).Error("Error receiving UDP datagram")
			metricReceiveErrors.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveRetryDelay):
			}
			continue
		}

		l.handle(buf[:n], addr)
	}
}
