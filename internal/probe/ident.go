package probe

import (
	"bytes"
	"net"
	"strings"
	"sync"
)

const maxIdentCapture = 8 * 1024

// identConn records the server identification line ("SSH-2.0-...") as the
// handshake reads it off the wire. Servers may send other lines first.
type identConn struct {
	net.Conn

	mu    sync.Mutex
	buf   []byte
	done  bool
	ident string
}

func newIdentConn(c net.Conn) *identConn {
	return &identConn{Conn: c}
}

func (c *identConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.capture(p[:n])
	}
	return n, err
}

func (c *identConn) capture(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return
	}
	c.buf = append(c.buf, b...)

	for {
		i := bytes.IndexByte(c.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(c.buf[:i]), "\r")
		c.buf = c.buf[i+1:]
		if strings.HasPrefix(line, "SSH-") {
			c.ident = line
			c.done = true
			c.buf = nil
			return
		}
	}

	if len(c.buf) > maxIdentCapture {
		c.done = true
		c.buf = nil
	}
}

// ServerVersion returns the identification line, or "" if none was seen.
func (c *identConn) ServerVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ident
}
