// Package serialport is a thin termios/ioctl wrapper around a serial device
// file descriptor. It mirrors the low-level line-discipline access a fieldbus
// transport needs: open, configure, raw read/write, and restore-on-close.
package serialport

import (
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
)

type Termios struct {
	Iflag IFlag      /* input mode flags */
	Oflag OFlag      /* output mode flags */
	Cflag CFlag      /* control mode flags */
	Lflag LFlag      /* local mode flags */
	Line  Discipline /* line discipline */
	Cc    [19]byte   /* control characters */
}

// Control character indices, see termios(3).
const (
	VINTR = iota
	VQUIT
	VERASE
	VKILL
	VEOF
	VTIME
	VMIN
)

type IFlag uint32

const (
	IGNBRK = IFlag(0000001)
	IGNPAR = IFlag(0000004)
	ISTRIP = IFlag(0000040)
	ICRNL  = IFlag(0000400)
	IXON   = IFlag(0002000)
)

type OFlag uint32

const (
	OPOST = OFlag(0000001)
)

type CFlag uint32

const (
	B0     = CFlag(0000000)
	B9600  = CFlag(0000015)
	B19200 = CFlag(0000016)
	B38400 = CFlag(0000017)

	CSIZE  = CFlag(0000060)
	CS5    = CFlag(0000000)
	CS6    = CFlag(0000020)
	CS7    = CFlag(0000040)
	CS8    = CFlag(0000060)
	CSTOPB = CFlag(0000100)
	CREAD  = CFlag(0000200)
	PARENB = CFlag(0000400)
	PARODD = CFlag(0001000)
	CLOCAL = CFlag(0004000)
	CBAUD  = CFlag(0010017)
)

type LFlag uint32

const (
	ISIG   = LFlag(0000001)
	ICANON = LFlag(0000002)
	ECHO   = LFlag(0000010)
	IEXTEN = LFlag(0100000)
)

type Discipline byte

const N_TTY = Discipline(0)

type Action int

const (
	TCSANOW = Action(iota)
	TCSADRAIN
	TCSAFLUSH
)

type Queue uint32

const (
	TCIFLUSH = Queue(iota)
	TCOFLUSH
	TCIOFLUSH
)

// Winsize mirrors struct winsize from <asm-generic/termios.h>, used only by
// OpenPTY to size a virtual slave line for loopback tests.
type Winsize struct {
	Row    uint16
	Col    uint16
	Xpixel uint16
	Ypixel uint16
}

type Options struct {
	ReadTimeout time.Duration
	OpenMode    int
}

func NewOptions() *Options {
	return &Options{ReadTimeout: -1, OpenMode: syscall.O_RDWR | syscall.O_NOCTTY}
}

func (o *Options) SetReadTimeout(timeout time.Duration) *Options {
	o.ReadTimeout = timeout
	return o
}

type Port struct {
	options *Options
	closed  atomic.Bool
	f       int
}

func Open(name string, opts *Options) (*Port, error) {
	if opts == nil {
		opts = NewOptions()
	}
	fd, err := syscall.Open(name, opts.OpenMode, 0)
	if err != nil {
		return nil, wrapErr("open "+name, err)
	}
	return &Port{options: opts, f: fd}, nil
}

func (p *Port) Write(data []byte) (n int, err error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	return syscall.Write(p.f, data)
}

func (p *Port) readTimeout(data []byte, timeout time.Duration) (int, error) {
	if err := poll.WaitInput(p.f, timeout); err != nil {
		return 0, err
	}
	return syscall.Read(p.f, data)
}

func (p *Port) Read(data []byte) (n int, err error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	if p.options.ReadTimeout > -1 {
		return p.readTimeout(data, p.options.ReadTimeout)
	}
	return syscall.Read(p.f, data)
}

func (p *Port) SetReadTimeout(timeout time.Duration) {
	p.options.ReadTimeout = timeout
}

func (p *Port) Fd() int {
	if p.closed.Load() {
		return -1
	}
	return p.f
}

func (p *Port) Close() error {
	if !p.closed.Swap(true) {
		fd := p.f
		p.f = -1
		return syscall.Close(fd)
	}
	return ErrClosed
}

func (p *Port) GetAttr() (*Termios, error) {
	attrs := &Termios{}
	if err := ioctl.Ioctl(uintptr(p.f), tcgets, uintptr(unsafe.Pointer(attrs))); err != nil {
		return nil, wrapErr("tcgetattr", err)
	}
	return attrs, nil
}

func (p *Port) SetAttr(when Action, attrs *Termios) error {
	if err := ioctl.Ioctl(uintptr(p.f), tcsets+uintptr(when), uintptr(unsafe.Pointer(attrs))); err != nil {
		return wrapErr("tcsetattr", err)
	}
	return nil
}

// Flush discards data written to the Port but not transmitted, or data
// received but not read, depending on the queue.
func (p *Port) Flush(queue Queue) error {
	return ioctl.Ioctl(uintptr(p.f), tcflsh, uintptr(queue))
}

// MakeRaw puts the Port into 8N1, no-echo, non-canonical mode.
func (attrs *Termios) MakeRaw() {
	attrs.Iflag &= ^(IGNBRK | ISTRIP | ICRNL | IXON)
	attrs.Oflag &= ^(OPOST)
	attrs.Lflag &= ^(ECHO | ICANON | ISIG | IEXTEN)
	attrs.Cflag &= ^(CSIZE | PARENB | CSTOPB)
	attrs.Cflag |= CS8
}

func (attrs *Termios) SetSpeed(speed CFlag) {
	attrs.Cflag &= ^(CBAUD)
	attrs.Cflag |= speed
}

// SetLockPT sets or clears the kernel PTY lock (TIOCSPTLCK), required before
// a freshly opened /dev/ptmx master will hand out a usable slave peer.
func (p *Port) SetLockPT(lock bool) error {
	var v int32
	if lock {
		v = 1
	}
	return ioctl.Ioctl(uintptr(p.f), tiocsptlck, uintptr(unsafe.Pointer(&v)))
}

// GetPTPeer opens the slave side of a /dev/ptmx master (TIOCGPTPEER).
func (p *Port) GetPTPeer(flags int) (*Port, error) {
	r1, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(p.f), tiocgptpeer, uintptr(flags))
	if errno != 0 {
		return nil, wrapErr("tiocgptpeer", errno)
	}
	return &Port{options: NewOptions(), f: int(r1)}, nil
}

func (p *Port) SetWinSize(w *Winsize) error {
	return ioctl.Ioctl(uintptr(p.f), tiocswinsz, uintptr(unsafe.Pointer(w)))
}
