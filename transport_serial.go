package seaio

import (
	"context"
	"time"

	"github.com/AlSharp/seaDAC-8111/internal/serialport"
)

// serialResponseCap is the accumulation limit seamaxlin.c's getResponse
// enforces on the RTU read path: once the accumulated response reaches this
// many bytes without satisfying the expected length, the call fails with
// OutOfMemory, even though the wire format allows larger frames. Preserved
// verbatim — see DESIGN.md and spec.md §9's open question.
const serialResponseCap = 220

// serialTransport is the RTU Transport variant: an open serial line plus the
// termios attributes saved at open time, restored on close (§3 Transport).
type serialTransport struct {
	port        *serialport.Port
	savedAttrs  *serialport.Termios
	throttle    time.Duration
}

// openSerialTransport opens path at 9600 8N1, ignoring parity errors, raw
// mode, with a 100 ms read timeout, saving the original attributes for
// restore on close (§6 Serial line parameters).
func openSerialTransport(path string, throttle time.Duration) (*serialTransport, error) {
	port, err := serialport.Open(path, serialport.NewOptions().SetReadTimeout(100*time.Millisecond))
	if err != nil {
		return nil, newErr(KindNotFound, "open serial device", err)
	}

	saved, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, newErr(KindTransportIO, "read serial attrs", err)
	}

	attrs := *saved
	attrs.MakeRaw()
	attrs.Iflag |= serialport.IGNPAR
	attrs.Cflag |= serialport.CREAD | serialport.CLOCAL
	attrs.SetSpeed(serialport.B9600)
	attrs.Cc[serialport.VTIME] = 1
	attrs.Cc[serialport.VMIN] = 0

	if err := port.SetAttr(serialport.TCSANOW, &attrs); err != nil {
		port.Close()
		return nil, newErr(KindTransportIO, "configure serial attrs", err)
	}

	return &serialTransport{port: port, savedAttrs: saved, throttle: throttle}, nil
}

func (t *serialTransport) kind() TransportKind { return TransportSerial }

func (t *serialTransport) nextTxID() uint16 { return 0 }

func (t *serialTransport) send(ctx context.Context, frame []byte) error {
	if _, err := t.port.Write(frame); err != nil {
		return newErr(KindTransportIO, "serial write", err)
	}
	return nil
}

// recv accumulates bytes until n have been read, sleeping throttle between
// chunks, failing with OutOfMemory if the accumulation reaches
// serialResponseCap before reaching n (§9 open question, preserved
// verbatim).
func (t *serialTransport) recv(ctx context.Context, n int) ([]byte, error) {
	buf := make([]byte, 0, n)
	chunk := make([]byte, 256)
	for len(buf) < n {
		select {
		case <-ctx.Done():
			return nil, newErr(KindTransportIO, "serial read cancelled", ctx.Err())
		default:
		}

		m, err := t.port.Read(chunk)
		if err != nil {
			return nil, newErr(KindTransportIO, "serial read", err)
		}
		if m > 0 {
			buf = append(buf, chunk[:m]...)
		}
		if len(buf) >= serialResponseCap && len(buf) < n {
			return nil, newErr(KindOutOfMemory, "serial response exceeded accumulation cap", nil)
		}
		if m == 0 && len(buf) < n {
			if t.throttle > 0 {
				time.Sleep(t.throttle)
			}
		}
	}
	return buf[:n], nil
}

func (t *serialTransport) close() error {
	if t.savedAttrs != nil {
		_ = t.port.SetAttr(serialport.TCSANOW, t.savedAttrs)
	}
	if err := t.port.Close(); err != nil {
		return newErr(KindTransportIO, "close serial port", err)
	}
	return nil
}
