package seaio

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// defaultTCPPort is used when a sealevel_tcp:// connection string omits a
// port (§6).
const defaultTCPPort = "502"

// tcpTransport is the TCP Transport variant: an open stream socket and the
// monotonically increasing 16-bit transaction id, owned here per §9's
// re-parenting requirement (the source keeps it as a global).
type tcpTransport struct {
	conn   net.Conn
	txid   uint16
}

// openTCPTransport resolves host (optionally host:port, defaulting to 502)
// and connects (§6 sealevel_tcp://).
func openTCPTransport(hostPort string, dialTimeout time.Duration) (*tcpTransport, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		host = hostPort
		port = defaultTCPPort
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, newErr(KindNotFound, "dial tcp", err)
	}
	return &tcpTransport{conn: conn}, nil
}

func (t *tcpTransport) kind() TransportKind { return TransportTCP }

// nextTxID returns the next transaction id and advances the counter modulo
// 2^16 (§3 Invariants).
func (t *tcpTransport) nextTxID() uint16 {
	id := t.txid
	t.txid++
	return id
}

func (t *tcpTransport) send(ctx context.Context, frame []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	if _, err := t.conn.Write(frame); err != nil {
		return newErr(KindTransportIO, "tcp write", err)
	}
	return nil
}

// recv reads the 6-byte MBAP-style header first and trusts its length field
// for the body size, rather than the caller-supplied n (a size computed from
// the request's own function code). A fixed guess can't distinguish a normal
// response from a shorter exception response (§4.1 decode's high-bit check),
// so self-describing TCP framing drives the read instead; n is otherwise
// unused here.
func (t *tcpTransport) recv(ctx context.Context, n int) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(deadline)
	}
	header := make([]byte, 6)
	if err := t.readFull(header); err != nil {
		return nil, err
	}
	bodyLen := int(binary.BigEndian.Uint16(header[4:6]))
	body := make([]byte, bodyLen)
	if err := t.readFull(body); err != nil {
		return nil, err
	}
	return append(header, body...), nil
}

func (t *tcpTransport) readFull(buf []byte) error {
	read := 0
	for read < len(buf) {
		m, err := t.conn.Read(buf[read:])
		if err != nil {
			return newErr(KindTransportIO, "tcp read", err)
		}
		read += m
	}
	return nil
}

// verifyTxID checks the response's echoed transaction id against want,
// returning FramingError on mismatch. The source does not perform this
// check (§9 design note); this is the documented fix.
func verifyTxID(raw []byte, want uint16) error {
	if len(raw) < 2 {
		return newErr(KindFramingError, "response too short for transaction id", nil)
	}
	got := uint16(raw[0])<<8 | uint16(raw[1])
	if got != want {
		return newErr(KindFramingError, "transaction id mismatch", nil)
	}
	return nil
}

func (t *tcpTransport) close() error {
	if err := t.conn.Close(); err != nil {
		return newErr(KindTransportIO, "close tcp conn", err)
	}
	return nil
}
