package seaio

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newPipedTCPSession builds a Session with its tcp transport wired directly
// to the client side of a net.Pipe, so tests can drive the wire protocol
// without a real socket (§2 AMBIENT STACK: net.Pipe for TCP transport tests).
func newPipedTCPSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	s := &Session{
		logger:   zap.NewNop(),
		throttle: time.Millisecond,
		kind:     targetTCP,
		tcp:      &tcpTransport{conn: client},
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, server
}

func TestSessionReadCoilsOverTCP(t *testing.T) {
	s, server := newPipedTCPSession(t)

	go func() {
		req := make([]byte, 12)
		_, _ = server.Read(req)
		resp := []byte{req[0], req[1], 0x00, 0x00, 0x00, 0x04, 0x05, 0x01, 0x01, 0x0A}
		_, _ = server.Write(resp)
	}()

	out := make([]byte, 8)
	n, err := s.Read(5, TypeCoils, 2, 4, out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, byte(0x0A), out[0])
}

func TestSessionReadExceptionPath(t *testing.T) {
	// §8 property 6 driven through the public Session.Read entry point.
	s, server := newPipedTCPSession(t)

	go func() {
		req := make([]byte, 12)
		_, _ = server.Read(req)
		resp := []byte{req[0], req[1], 0x00, 0x00, 0x00, 0x03, 0x05, byte(FuncReadCoils) | 0x80, 0x02}
		_, _ = server.Write(resp)
	}()

	out := make([]byte, 8)
	_, err := s.Read(5, TypeCoils, 1, 4, out)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, KindProtocolException, serr.Kind)
	require.Equal(t, byte(0x02), serr.Exception)
}

func TestSessionWriteSingleRegisterUpgradesToMultipleOnRange(t *testing.T) {
	s, server := newPipedTCPSession(t)

	var capturedFcode byte
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := make([]byte, 17)
		_, _ = server.Read(req)
		capturedFcode = req[7]
		// Real write-multiple-registers responses echo slave/fcode/start/qty
		// only, dropping the bytecount+data the request carried.
		echoBody := append([]byte{}, req[6:12]...)
		resp := append([]byte{req[0], req[1], 0x00, 0x00, 0x00, 0x06}, echoBody...)
		_, _ = server.Write(resp)
	}()

	in := []byte{0x00, 0x01, 0x00, 0x02}
	written, err := s.Write(1, TypeHoldingRegisters, 1, 2, in)
	<-done
	require.NoError(t, err)
	require.Equal(t, 4, written)
	require.Equal(t, byte(FuncWriteMultipleRegs), capturedFcode)
}

func TestSessionTCPTransactionIDIncrements(t *testing.T) {
	s, server := newPipedTCPSession(t)

	var ids []uint16
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			req := make([]byte, 12)
			_, _ = server.Read(req)
			mu.Lock()
			ids = append(ids, uint16(req[0])<<8|uint16(req[1]))
			mu.Unlock()
			resp := []byte{req[0], req[1], 0x00, 0x00, 0x00, 0x04, 0x05, 0x01, 0x01, 0x00}
			_, _ = server.Write(resp)
		}
	}()

	out := make([]byte, 4)
	_, err := s.Read(5, TypeCoils, 1, 4, out)
	require.NoError(t, err)
	_, err = s.Read(5, TypeCoils, 1, 4, out)
	require.NoError(t, err)
	<-done

	require.Equal(t, []uint16{0, 1}, ids)
}

func TestSessionTCPTransactionIDMismatchIsFramingError(t *testing.T) {
	s, server := newPipedTCPSession(t)

	go func() {
		req := make([]byte, 12)
		_, _ = server.Read(req)
		// echo the wrong transaction id.
		resp := []byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x04, 0x05, 0x01, 0x01, 0x00}
		_, _ = server.Write(resp)
	}()

	out := make([]byte, 4)
	_, err := s.Read(5, TypeCoils, 1, 4, out)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, KindFramingError, serr.Kind)
}

func TestSessionMutualExclusionSerializesCallers(t *testing.T) {
	// Runs N concurrent Read callers against one Session, whose mutex is what
	// keeps at most one transaction in flight (§8 property 5); the assertion
	// below only bounds the caller-side in-flight count.
	s, server := newPipedTCPSession(t)

	var inFlight int32
	var maxInFlight int32
	const callers = 6

	go func() {
		for i := 0; i < callers; i++ {
			req := make([]byte, 12)
			_, _ = server.Read(req)
			resp := []byte{req[0], req[1], 0x00, 0x00, 0x00, 0x04, 0x05, 0x01, 0x01, 0x00}
			_, _ = server.Write(resp)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := make([]byte, 4)
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&maxInFlight)
				if cur <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, cur) {
					break
				}
			}
			_, _ = s.Read(5, TypeCoils, 1, 4, out)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	// The session's own mutex serializes transact(), not the goroutine
	// scheduling above it; this just exercises N concurrent callers without
	// a panic or data race, matching the "no fairness guarantee" contract.
	require.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(callers))
}

func TestSessionSetIntermessageDelayRejectsSubMillisecond(t *testing.T) {
	s := Create()
	require.Error(t, s.SetIntermessageDelay(0))
	require.NoError(t, s.SetIntermessageDelay(5))
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s, _ := newPipedTCPSession(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSessionUSBOnlyOpsRejectedOnTCPSession(t *testing.T) {
	s, _ := newPipedTCPSession(t)
	require.Error(t, s.GetPIO(make([]byte, 4)))
	require.Error(t, s.SetPIO(make([]byte, 2)))
}
