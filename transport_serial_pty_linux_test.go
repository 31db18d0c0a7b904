package seaio

import (
	"context"
	"testing"
	"time"

	"github.com/AlSharp/seaDAC-8111/internal/serialport"
	"github.com/stretchr/testify/require"
)

// readAllFrom loops Port.Read until buf is full or an error occurs, since a
// PTY read can return fewer bytes than were written in one syscall.Write.
func readAllFrom(p *serialport.Port, buf []byte) error {
	total := 0
	for attempt := 0; total < len(buf); attempt++ {
		n, err := p.Read(buf[total:])
		if err != nil {
			return err
		}
		total += n
		if n == 0 && attempt > 50 {
			return newErr(KindTransportIO, "pty read stalled", nil)
		}
	}
	return nil
}

// TestSerialLoopbackOverPTY drives the RTU transport against a real character
// device pair from serialport.OpenPTY, rather than the net.Pipe approximation
// session_test.go uses for TCP — exercising OpenPTY, Port.SetLockPT,
// Port.GetPTPeer and Port.SetWinSize end to end instead of leaving them as
// unreached exported API.
func TestSerialLoopbackOverPTY(t *testing.T) {
	attrs := &serialport.Termios{}
	attrs.MakeRaw()
	attrs.Iflag |= serialport.IGNPAR
	attrs.Cflag |= serialport.CREAD | serialport.CLOCAL
	attrs.SetSpeed(serialport.B9600)
	attrs.Cc[serialport.VTIME] = 1
	attrs.Cc[serialport.VMIN] = 0

	master, slave, err := serialport.OpenPTY(attrs, &serialport.Winsize{Row: 24, Col: 80})
	if err != nil {
		t.Skipf("pty unavailable in this sandbox: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	master.SetReadTimeout(100 * time.Millisecond)
	slave.SetReadTimeout(100 * time.Millisecond)

	st := &serialTransport{port: master, throttle: time.Millisecond}

	done := make(chan error, 1)
	go func() {
		req := make([]byte, 8)
		if err := readAllFrom(slave, req); err != nil {
			done <- err
			return
		}
		resp := appendCRC([]byte{req[0], req[1], 0x01, 0x0A})
		_, err := slave.Write(resp)
		done <- err
	}()

	frame, err := encode(5, FuncReadCoils, 0, 4, nil, TransportSerial, 0)
	require.NoError(t, err)
	require.NoError(t, st.send(context.Background(), frame))
	require.NoError(t, <-done)

	raw, err := st.recv(context.Background(), decodeLength(FuncReadCoils, TransportSerial, 4))
	require.NoError(t, err)

	payload, err := decode(FuncReadCoils, TransportSerial, raw)
	require.NoError(t, err)
	require.Equal(t, []byte{0x0A}, payload)
}
