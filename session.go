package seaio

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultThrottle is the minimum and default inter-message delay (§3, §6).
const defaultThrottle = time.Millisecond

// SessionOptions configures a Session at creation time, mirroring goserial's
// Options builder (logger defaults to zap.NewNop(), matching
// rinzlerlabs/gomodbus's transport constructors).
type SessionOptions struct {
	Logger   *zap.Logger
	Throttle time.Duration
}

// NewSessionOptions returns the default option set.
func NewSessionOptions() *SessionOptions {
	return &SessionOptions{Logger: zap.NewNop(), Throttle: defaultThrottle}
}

func (o *SessionOptions) SetLogger(l *zap.Logger) *SessionOptions {
	o.Logger = l
	return o
}

func (o *SessionOptions) SetThrottle(d time.Duration) *SessionOptions {
	o.Throttle = d
	return o
}

// Session is the single public object multiplexing the three transports
// behind one Read/Write/Ioctl contract (§2 component 4, §4.3).
type Session struct {
	mu       sync.Mutex
	logger   *zap.Logger
	throttle time.Duration

	kind   targetKind
	serial *serialTransport
	tcp    *tcpTransport
	usb    *usbTransport
}

// Create allocates an unopened Session with default options.
func Create() *Session {
	return NewSession(NewSessionOptions())
}

// NewSession allocates an unopened Session with the given options.
func NewSession(opts *SessionOptions) *Session {
	if opts == nil {
		opts = NewSessionOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = defaultThrottle
	}
	return &Session{logger: logger, throttle: throttle, kind: targetNone}
}

// Open parses connectionString and opens the corresponding transport,
// closing any transport already open first (§4.3 open, Scenario F).
func (s *Session) Open(connectionString string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := parseConnectionString(connectionString)
	if err != nil {
		return err
	}

	if s.kind != targetNone {
		if err := s.closeLocked(); err != nil {
			return err
		}
	}

	switch target.kind {
	case targetRTU:
		t, err := openSerialTransport(target.path, s.throttle)
		if err != nil {
			return err
		}
		s.serial = t
		s.kind = targetRTU

	case targetTCP:
		t, err := openTCPTransport(target.hostport, 5*time.Second)
		if err != nil {
			return err
		}
		s.tcp = t
		s.kind = targetTCP

	case targetUSB:
		t, err := openUSBTransport(target.pid)
		if err != nil {
			return err
		}
		s.usb = t
		s.kind = targetUSB

	default:
		return newErr(KindInvalidArgument, "unrecognized connection target", nil)
	}

	s.logger.Debug("session opened", zap.String("target", connectionString))
	return nil
}

// Close tears down whichever transport is open, restoring serial attributes
// or running the USB bridge's disable/close sequence, and is idempotent
// (§3 Lifecycles, §8 Property 8).
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	var err error
	switch s.kind {
	case targetRTU:
		err = s.serial.close()
		s.serial = nil
	case targetTCP:
		err = s.tcp.close()
		s.tcp = nil
	case targetUSB:
		err = s.usb.close()
		s.usb = nil
	case targetNone:
		return nil
	}
	s.kind = targetNone
	return err
}

// fieldbus returns the currently open transport as a fieldbusTransport, or
// Unsupported if the open transport is USB or none is open.
func (s *Session) fieldbus() (fieldbusTransport, error) {
	switch s.kind {
	case targetRTU:
		return s.serial, nil
	case targetTCP:
		return s.tcp, nil
	case targetNone:
		return nil, newErr(KindUnsupported, "session not open", nil)
	default:
		return nil, newErr(KindUnsupported, "operation not valid on this transport", nil)
	}
}

// transact runs one request/response exchange over the open fieldbus
// transport: encode, send, receive the expected length, decode (§2 data
// flow, §4.1).
func (s *Session) transact(slave byte, fcode FunctionCode, start, qty uint16, data []byte) ([]byte, error) {
	ft, err := s.fieldbus()
	if err != nil {
		return nil, err
	}

	kind := ft.kind()
	txid := ft.nextTxID()

	frame, err := encode(slave, fcode, start, qty, data, kind, txid)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tx", zap.String("bytes", hex.EncodeToString(frame)))

	ctx := context.Background()
	if err := ft.send(ctx, frame); err != nil {
		return nil, err
	}

	if s.throttle > 0 {
		time.Sleep(s.throttle)
	}

	raw, err := ft.recv(ctx, decodeLength(fcode, kind, int(qty)))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("rx", zap.String("bytes", hex.EncodeToString(raw)))

	if kind == TransportTCP {
		if err := verifyTxID(raw, txid); err != nil {
			return nil, err
		}
	}

	return decode(fcode, kind, raw)
}

// Read translates type (1..6) to a read function code and issues the
// request, writing the decoded payload into out (§4.3 read).
func (s *Session) Read(slave byte, typ SeaIOType, start1based, rng uint16, out []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if typ < 1 || int(typ) > len(readFunctionByType) {
		return 0, newErr(KindInvalidArgument, "invalid read type", nil)
	}
	fcode := readFunctionByType[typ-1]

	payload, err := s.transact(slave, fcode, start1based-1, rng, nil)
	if err != nil {
		return 0, err
	}
	n := copy(out, payload)
	return n, nil
}

// Write translates type (1..6) to a write function code, upgrading a single
// holding-register write to the multi-register function when range > 1, and
// issues the request (§4.3 write).
func (s *Session) Write(slave byte, typ SeaIOType, start1based, rng uint16, in []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if typ < 1 || int(typ) > len(writeFunctionByType) {
		return 0, newErr(KindInvalidArgument, "invalid write type", nil)
	}
	fcode := writeFunctionByType[typ-1]
	if fcode == invalidFunction {
		return 0, newErr(KindInvalidArgument, "type has no write function", nil)
	}

	var qty uint16
	switch fcode {
	case FuncWriteSingleRegister:
		if rng > 1 {
			fcode = FuncWriteMultipleRegs
			qty = rng
		} else {
			if len(in) < 2 {
				return 0, newErr(KindInvalidArgument, "short register value", nil)
			}
			qty = uint16(in[0])<<8 | uint16(in[1])
		}
	case FuncWriteMultipleCoils:
		qty = rng
	case FuncSetPIODirection:
		qty = rng
	}

	payload, err := s.transact(slave, fcode, start1based-1, qty, in)
	if err != nil {
		return 0, err
	}

	switch fcode {
	case FuncWriteMultipleCoils:
		return int((qty + 7) / 8), nil
	case FuncWriteMultipleRegs:
		return int(qty) * 2, nil
	case FuncSetPIODirection:
		return 12, nil
	default:
		_ = payload
		return 2, nil
	}
}

// Ioctl translates which (1..8) to a function code and performs the
// pack/unpack exchange described in §4.1's body table. which=9 (extended A/D
// probe) is not handled here — that composition lives in the probe package,
// built only from Read/Write/Ioctl (§9 design note).
func (s *Session) Ioctl(slave byte, which IOCTLSelector, inout []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if which == IoctlGetADDAExtConfig {
		return newErr(KindUnsupported, "extended a/d probe is composed in package probe, not Ioctl", nil)
	}
	if which < 1 || int(which) > len(ioctlFunctionBySelector) {
		return newErr(KindInvalidArgument, "invalid ioctl selector", nil)
	}
	fcode := ioctlFunctionBySelector[which-1]

	payload, err := s.transact(slave, fcode, 0, 0, inout)
	if err != nil {
		return err
	}

	if !isWriteFunction(fcode) {
		copy(inout, payload)
	}
	return nil
}

// SetIntermessageDelay sets the Session's throttle, rejecting anything below
// 1 ms (§4.3 set_intermessage_delay, seamaxlin.c's SeaMaxLinSetIMDelay).
func (s *Session) SetIntermessageDelay(ms int) error {
	if ms < 1 {
		return newErr(KindInvalidArgument, "intermessage delay must be >= 1ms", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle = time.Duration(ms) * time.Millisecond
	return nil
}

// GetPIO reads the direction-qualified PIO state from a USB session (§4.3
// USB-only ops).
func (s *Session) GetPIO(out []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != targetUSB {
		return newErr(KindUnsupported, "get_pio requires a usb session", nil)
	}
	return s.usb.getPIO(out)
}

// SetPIO writes the PIO output state on a USB session.
func (s *Session) SetPIO(in []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != targetUSB {
		return newErr(KindUnsupported, "set_pio requires a usb session", nil)
	}
	return s.usb.setPIO(in)
}

// SetPIODirection writes the PIO direction mask on a USB session.
func (s *Session) SetPIODirection(in []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != targetUSB {
		return newErr(KindUnsupported, "set_pio_direction requires a usb session", nil)
	}
	return s.usb.setPIODirection(in)
}

// GetPIODirection reads the PIO direction mask back from a USB session.
func (s *Session) GetPIODirection(out []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != targetUSB {
		return newErr(KindUnsupported, "get_pio_direction requires a usb session", nil)
	}
	return s.usb.getPIODirection(out)
}

// ReadRaw and WriteRaw implement the Lite (non-8126) USB read/write path:
// the state of the first 8 bridge pins, and at most 2 raw output bytes
// (§6 USB-module-only read/write).
func (s *Session) ReadRaw(out []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != targetUSB {
		return 0, newErr(KindUnsupported, "raw read requires a usb session", nil)
	}
	if len(out) > 2 {
		return 0, newErr(KindOutOfRange, "lite read exceeds 2 bytes", nil)
	}
	pins, err := s.usb.readPinsRaw()
	if err != nil {
		return 0, err
	}
	n := copy(out, []byte{pins})
	return n, nil
}

func (s *Session) WriteRaw(in []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != targetUSB {
		return 0, newErr(KindUnsupported, "raw write requires a usb session", nil)
	}
	if len(in) > 2 {
		return 0, newErr(KindOutOfRange, "lite write exceeds 2 bytes", nil)
	}
	if err := s.usb.writePinsRaw(in); err != nil {
		return 0, err
	}
	return len(in), nil
}
