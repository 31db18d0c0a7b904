package seaio

import (
	"time"

	"github.com/google/gousb"
)

// usbVendorID is the bridge chip family's USB vendor id (§6).
const usbVendorID = 0x0C52

// FTDI-style vendor bRequest values used for bitmode/purge, matching the
// control-transfer shapes referenced by the FTDI MPSSE driver family (see
// DESIGN.md).
const (
	reqSetBitmode  = 0x0B
	reqPurgeRxFIFO = 0x00
	reqPurgeTxFIFO = 0x01
	reqReset       = 0x00
)

// bitmode values for the vendor set_bitmode request.
const (
	bitmodeReset   byte = 0x00
	bitmodeBitbang byte = 0x01
	bitmodeMPSSE   byte = 0x02
	bitmodeSyncBB  byte = 0x04
)

// usbDriver wraps the bridge chip's gousb handle, implementing exactly the
// five operations the spec treats as the opaque external driver: open by
// VID/PID, read, write, purge, bitmode (§1, §4.2). Grounded on
// guiperry-HASHER's internal/driver/device/usb_device.go.
type usbDriver struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	out    *gousb.OutEndpoint
	in     *gousb.InEndpoint
}

// openUSBDriver opens the bridge chip by VID/PID and claims its bulk
// endpoints, unwinding cleanly on any failure.
func openUSBDriver(pid USBProductID) (*usbDriver, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(usbVendorID), gousb.ID(pid))
	if err != nil || dev == nil {
		ctx.Close()
		return nil, newErr(KindNotFound, "open usb bridge", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, newErr(KindTransportIO, "claim usb config", err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, newErr(KindTransportIO, "claim usb interface", err)
	}

	out, err := intf.OutEndpoint(2)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, newErr(KindTransportIO, "open out endpoint", err)
	}

	in, err := intf.InEndpoint(1)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, newErr(KindTransportIO, "open in endpoint", err)
	}

	return &usbDriver{ctx: ctx, dev: dev, config: cfg, intf: intf, out: out, in: in}, nil
}

// SetBitmode programs the bridge's bit mode and direction mask via the
// vendor control request (§6).
func (d *usbDriver) SetBitmode(mask byte, mode byte) error {
	value := uint16(mask) | uint16(mode)<<8
	_, err := d.dev.Control(0x40, reqSetBitmode, value, 0, nil)
	if err != nil {
		return newErr(KindTransportIO, "set_bitmode", err)
	}
	return nil
}

// Purge flushes both the bridge's RX and TX USB FIFOs (§4.2 executor step 1).
func (d *usbDriver) Purge() error {
	if _, err := d.dev.Control(0x40, reqPurgeRxFIFO, 1, 0, nil); err != nil {
		return newErr(KindTransportIO, "purge rx fifo", err)
	}
	if _, err := d.dev.Control(0x40, reqPurgeTxFIFO, 2, 0, nil); err != nil {
		return newErr(KindTransportIO, "purge tx fifo", err)
	}
	return nil
}

// Write sends the entire command buffer in one bulk OUT transfer (§4.2
// executor step 2).
func (d *usbDriver) Write(buf []byte) error {
	_, err := d.out.Write(buf)
	if err != nil {
		return newErr(KindTransportIO, "usb bulk write", err)
	}
	return nil
}

// Read reads exactly n bytes back from the bridge's bulk IN endpoint (§4.2
// executor step 3).
func (d *usbDriver) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	deadline := time.Now().Add(2 * time.Second)
	for read < n {
		m, err := d.in.Read(buf[read:])
		if err != nil {
			return nil, newErr(KindTransportIO, "usb bulk read", err)
		}
		read += m
		if read < n && time.Now().After(deadline) {
			return buf[:read], newErr(KindTransportIO, "usb bulk read timed out", nil)
		}
	}
	return buf, nil
}

// ReadPins performs a raw (non-MPSSE) read of the first 8 bridge pins, used
// by the Lite read path for product ids other than 8126 (§6).
func (d *usbDriver) ReadPins() (byte, error) {
	buf := make([]byte, 1)
	_, err := d.dev.Control(0xC0, 0x0C, 0, 0, buf)
	if err != nil {
		return 0, newErr(KindTransportIO, "read pins", err)
	}
	return buf[0], nil
}

// WritePins performs a raw (non-MPSSE) write of up to 2 bytes, used by the
// Lite write path for product ids other than 8126 (§6).
func (d *usbDriver) WritePins(data []byte) error {
	_, err := d.out.Write(data)
	if err != nil {
		return newErr(KindTransportIO, "write pins", err)
	}
	return nil
}

// Close disables bit-bang mode and tears the handle chain down, mirroring
// closeD2X's disable_bitbang/usb_close/deinit/free sequence (§3 Lifecycles).
func (d *usbDriver) Close() error {
	_ = d.SetBitmode(0, bitmodeReset)
	var firstErr error
	d.intf.Close()
	if err := d.config.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.dev.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.ctx.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return newErr(KindTransportIO, "usb close", firstErr)
	}
	return nil
}
