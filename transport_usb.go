package seaio

// pioExpanderLow and pioExpanderHigh are the I2C addresses of the 8126's
// two PIO expander chips (seadaclite.c SeaDacGetPIO/SetPIO).
const (
	pioExpanderLow  byte = 0xE8
	pioExpanderHigh byte = 0xEA
)

// PIO expander register numbers (seadaclite.c).
const (
	pioRegInputLow   byte = 0x00
	pioRegInputHigh  byte = 0x01
	pioRegOutputLow  byte = 0x02
	pioRegOutputHigh byte = 0x03
	pioRegDirLow     byte = 0x06
	pioRegDirHigh    byte = 0x07
)

// usbTransport is the USB Transport variant: the opaque bridge driver
// handle, the emulated two-wire bus's ChipState, and a reusable
// CommandBuffer, all owned here per §9's re-parenting requirement (the
// source keeps chip state and the buffer as globals).
type usbTransport struct {
	driver *usbDriver
	pid    USBProductID
	mpsse  bool
	cmd    *CommandBuffer
}

// openUSBTransport opens the bridge by product id and sets its operating
// mode per the product-id table in §6. For 8126 it also runs the I2C
// initialization sequence (seadaclite.c's I2C_InitializeI2C).
func openUSBTransport(pid USBProductID) (*usbTransport, error) {
	mask, mpsse, ok := bitbangDirectionMask(pid)
	if !ok {
		return nil, newErr(KindUnsupported, "unsupported usb product id", nil)
	}

	driver, err := openUSBDriver(pid)
	if err != nil {
		return nil, err
	}

	mode := bitmodeBitbang
	if mpsse {
		mode = bitmodeMPSSE
	}
	if err := driver.SetBitmode(mask, mode); err != nil {
		driver.Close()
		return nil, err
	}

	t := &usbTransport{driver: driver, pid: pid}

	if mpsse {
		pins, err := driver.ReadPins()
		if err != nil {
			driver.Close()
			return nil, err
		}
		chip := ChipState{
			Value:     (pins & 0xF0) | 0x03,
			Direction: 0xF3,
		}
		t.cmd = NewCommandBuffer(chip)
		t.mpsse = true
		if err := t.initI2C(); err != nil {
			driver.Close()
			return nil, err
		}
	} else {
		t.cmd = NewCommandBuffer(ChipState{})
	}

	return t, nil
}

// initI2C programs the clock divisor and disables loopback, mirroring
// I2C_InitializeI2C's tail end (the GPIO priming happened in
// openUSBTransport using the pin snapshot read right after MPSSE mode was
// set).
func (t *usbTransport) initI2C() error {
	t.cmd.Reset()
	if err := t.cmd.append(0x86, 0x0D, 0x00); err != nil {
		return err
	}
	if err := t.cmd.append(0x85); err != nil {
		return err
	}
	if err := t.cmd.Execute(t.driver); err != nil {
		return err
	}
	return nil
}

func (t *usbTransport) close() error {
	return t.driver.Close()
}

// readPinsRaw implements the Lite (non-8126) read path: the state of the
// first 8 bridge pins (§6 USB-module-only read/write).
func (t *usbTransport) readPinsRaw() (byte, error) {
	return t.driver.ReadPins()
}

// writePinsRaw implements the Lite (non-8126) write path: at most 2 raw
// bytes (§6).
func (t *usbTransport) writePinsRaw(data []byte) error {
	if len(data) > 2 {
		return newErr(KindOutOfRange, "lite write exceeds 2 bytes", nil)
	}
	return t.driver.WritePins(data)
}

// getPIO reads the direction-qualified state of both expander chips into
// out, per SeaDacGetPIO: data[i] = (inputState[i] & direction[i]) |
// (outputState[i] & ^direction[i]). out must hold 4 bytes, but only two
// ports are read: out[0] from the low chip's port-0 registers and out[1]
// from the high chip's port-1 registers; out[2] and out[3] are set to zero.
func (t *usbTransport) getPIO(out []byte) error {
	if len(out) < 4 {
		return newErr(KindInvalidArgument, "pio buffer must be 4 bytes", nil)
	}

	var dirLo, dirHi, inLo, inHi, outLo, outHi byte
	t.cmd.Reset()
	if err := t.cmd.ReadRegister(pioExpanderLow, pioRegDirLow, &dirLo); err != nil {
		return err
	}
	if err := t.cmd.ReadRegister(pioExpanderHigh, pioRegDirHigh, &dirHi); err != nil {
		return err
	}
	if err := t.cmd.ReadRegister(pioExpanderLow, pioRegInputLow, &inLo); err != nil {
		return err
	}
	if err := t.cmd.ReadRegister(pioExpanderHigh, pioRegInputHigh, &inHi); err != nil {
		return err
	}
	if err := t.cmd.Execute(t.driver); err != nil {
		return err
	}

	t.cmd.Reset()
	if err := t.cmd.ReadRegister(pioExpanderLow, pioRegOutputLow, &outLo); err != nil {
		return err
	}
	if err := t.cmd.ReadRegister(pioExpanderHigh, pioRegOutputHigh, &outHi); err != nil {
		return err
	}
	if err := t.cmd.Execute(t.driver); err != nil {
		return err
	}

	out[0] = (inLo & dirLo) | (outLo &^ dirLo)
	out[1] = (inHi & dirHi) | (outHi &^ dirHi)
	out[2] = 0
	out[3] = 0
	return nil
}

// setPIO writes the output-state registers on both expander chips
// (SeaDacSetPIO).
func (t *usbTransport) setPIO(in []byte) error {
	if len(in) < 2 {
		return newErr(KindInvalidArgument, "pio buffer must carry 2 bytes", nil)
	}
	t.cmd.Reset()
	if err := t.cmd.WriteRegister(pioExpanderLow, pioRegOutputLow, in[0]); err != nil {
		return err
	}
	if err := t.cmd.WriteRegister(pioExpanderHigh, pioRegOutputHigh, in[1]); err != nil {
		return err
	}
	return t.cmd.Execute(t.driver)
}

// setPIODirection writes the direction registers on both expander chips as
// all-0xFF (input) or all-0x00 (output) per byte, per SeaDacSetPIODirection,
// plus the accompanying I2C_SetGPIO call that mirrors the zero-direction
// bits onto the bridge's own GPIO enable lines.
func (t *usbTransport) setPIODirection(in []byte) error {
	if len(in) < 2 {
		return newErr(KindInvalidArgument, "pio direction buffer must carry 2 bytes", nil)
	}

	dirLo := byte(0xFF)
	if in[0] == 0 {
		dirLo = 0x00
	}
	dirHi := byte(0xFF)
	if in[1] == 0 {
		dirHi = 0x00
	}

	t.cmd.Reset()
	if err := t.cmd.WriteRegister(pioExpanderLow, pioRegDirLow, dirLo); err != nil {
		return err
	}
	if err := t.cmd.WriteRegister(pioExpanderHigh, pioRegDirHigh, dirHi); err != nil {
		return err
	}

	var enable byte
	if in[0] == 0 {
		enable |= 0x01
	}
	if in[1] == 0 {
		enable |= 0x02
	}
	if err := t.cmd.SetGPIO(0xFF, ^enable); err != nil {
		return err
	}

	return t.cmd.Execute(t.driver)
}

// getPIODirection reads the direction registers back from both expander
// chips (SeaDacGetPIODirection).
func (t *usbTransport) getPIODirection(out []byte) error {
	if len(out) < 2 {
		return newErr(KindInvalidArgument, "pio direction buffer must be 2 bytes", nil)
	}
	t.cmd.Reset()
	if err := t.cmd.ReadRegister(pioExpanderLow, pioRegDirLow, &out[0]); err != nil {
		return err
	}
	if err := t.cmd.ReadRegister(pioExpanderHigh, pioRegDirHigh, &out[1]); err != nil {
		return err
	}
	return t.cmd.Execute(t.driver)
}
