package seaio

// ChipState tracks the bridge chip's first-bank GPIO output latch and
// direction mask, mirroring the module-level i2cMPSSEValue/i2cMPSSEDirection
// globals in seadaclite.c, re-parented onto the owning Transport per §9.
type ChipState struct {
	Value     byte
	Direction byte
}

const (
	maxCommandBytes = 4096
	maxReplySlots   = 255
)

// bitmask values for the emulated two-wire bus lines (seadaclite.c's
// sdl_i2c_type).
const (
	lineSCL byte = 0x01
	lineSDA byte = 0x02
)

// replySlot records where in the reply stream a caller-bound byte lives.
type replySlot struct {
	offset int
	dest   *byte
}

// CommandBuffer is the append-only bridge-chip opcode buffer and its
// reply-slot table (§4.2, §3). Reset at the start of each logical
// transaction; consumed by execute.
type CommandBuffer struct {
	buf         []byte
	expectReply int
	slots       []replySlot
	chip        ChipState
}

// NewCommandBuffer returns an empty buffer seeded with the chip's current
// state, so the first opcode it emits preserves previously latched bits.
func NewCommandBuffer(chip ChipState) *CommandBuffer {
	return &CommandBuffer{chip: chip}
}

// Reset clears the buffer for a new transaction without losing chip state.
func (c *CommandBuffer) Reset() {
	c.buf = c.buf[:0]
	c.expectReply = 0
	c.slots = c.slots[:0]
}

func (c *CommandBuffer) append(b ...byte) error {
	if len(c.buf)+len(b) > maxCommandBytes {
		return newErr(KindOutOfRange, "usb command buffer full", nil)
	}
	c.buf = append(c.buf, b...)
	return nil
}

func (c *CommandBuffer) addReplyBytes(n int) error {
	c.expectReply += n
	return nil
}

func (c *CommandBuffer) addSlot(offset int, dest *byte) error {
	if len(c.slots) >= maxReplySlots {
		return newErr(KindOutOfRange, "usb reply slot table full", nil)
	}
	c.slots = append(c.slots, replySlot{offset: offset, dest: dest})
	return nil
}

// SetGPIO emits a 0x80/0x82 pair applying directionMask/stateMask to both
// banks, preserving the previously latched low nibble (§4.2 set_gpio).
func (c *CommandBuffer) SetGPIO(directionMask, stateMask byte) error {
	value := (c.chip.Value & 0x0F) | (stateMask & 0xF0)
	direction := (c.chip.Direction & 0x0F) | (directionMask & 0xF0)
	if err := c.append(0x80, value, direction); err != nil {
		return err
	}
	if err := c.append(0x82, value, direction); err != nil {
		return err
	}
	c.chip.Value = value
	c.chip.Direction = direction
	return nil
}

// setLow sets only the low nibble of value/direction, used by the
// start/stop/byte sequences to toggle SCL/SDA without disturbing the upper
// nibble's latched GPIO state.
func (c *CommandBuffer) setLow(value, direction byte) error {
	newValue := (c.chip.Value & 0xF0) | (value & 0x0F)
	newDirection := (c.chip.Direction & 0xF0) | (direction & 0x0F)
	if err := c.append(0x80, newValue, newDirection); err != nil {
		return err
	}
	c.chip.Value = newValue
	c.chip.Direction = newDirection
	return nil
}

// Start appends the two-wire start condition: idle-high SDA/SCL, drop SDA,
// drop SCL (§4.2 start).
func (c *CommandBuffer) Start() error {
	if err := c.setLow(lineSCL|lineSDA, lineSCL|lineSDA); err != nil {
		return err
	}
	if err := c.setLow(lineSCL, lineSCL|lineSDA); err != nil {
		return err
	}
	return c.setLow(0, lineSCL|lineSDA)
}

// Stop appends the two-wire stop condition: raise SCL with SDA low, raise
// SDA, then tri-state both lines (§4.2 stop).
func (c *CommandBuffer) Stop() error {
	if err := c.setLow(lineSCL, lineSCL|lineSDA); err != nil {
		return err
	}
	if err := c.setLow(lineSCL|lineSDA, lineSCL|lineSDA); err != nil {
		return err
	}
	return c.setLow(lineSCL|lineSDA, 0)
}

// ShiftOut emits opcode 0x13, shifting out the low (n+1) bits of b MSB-first.
func (c *CommandBuffer) ShiftOut(n int, b byte) error {
	return c.append(0x13, byte(n), b)
}

// ShiftIn emits opcode 0x26, clocking (n+1) bits into the reply stream.
func (c *CommandBuffer) ShiftIn(n int) error {
	if err := c.append(0x26, byte(n)); err != nil {
		return err
	}
	return c.addReplyBytes(1)
}

// WriteAddr appends the 7-bit address + R/W bit, switches SDA to input,
// clocks one ACK bit into the reply stream, then restores both lines to low
// outputs (§4.2 write_addr).
func (c *CommandBuffer) WriteAddr(addr7 byte, rw byte) error {
	if err := c.ShiftOut(7, (addr7&0xFE)|(rw&1)); err != nil {
		return err
	}
	if err := c.setLow(0, lineSCL); err != nil {
		return err
	}
	if err := c.ShiftIn(0); err != nil {
		return err
	}
	return c.setLow(0, lineSCL|lineSDA)
}

// WriteByte appends a full data byte, clocks one ACK bit into the reply
// stream, then restores both lines to low outputs (§4.2 write_byte).
func (c *CommandBuffer) WriteByte(b byte) error {
	if err := c.ShiftOut(7, b); err != nil {
		return err
	}
	if err := c.setLow(0, lineSCL); err != nil {
		return err
	}
	if err := c.ShiftIn(0); err != nil {
		return err
	}
	return c.setLow(0, lineSCL|lineSDA)
}

// ReadByte switches SDA to input, clocks 8 bits into the reply stream, then
// sends a one-bit master NAK (§4.2 read_byte). Returns the offset into the
// eventual reply buffer holding the data byte.
func (c *CommandBuffer) ReadByte() (int, error) {
	if err := c.setLow(0, lineSCL); err != nil {
		return 0, err
	}
	offset := c.expectReply
	if err := c.ShiftIn(7); err != nil {
		return 0, err
	}
	if err := c.ShiftOut(0, 0x80); err != nil {
		return 0, err
	}
	return offset, nil
}

// ReadRegister appends start, write_addr(dev,W), write_byte(reg), start,
// write_addr(dev,R), read_byte, stop, and records dest as receiving the
// register's data byte (§4.2 read_register).
func (c *CommandBuffer) ReadRegister(devAddr, reg byte, dest *byte) error {
	if err := c.Start(); err != nil {
		return err
	}
	if err := c.WriteAddr(devAddr, 0); err != nil {
		return err
	}
	if err := c.WriteByte(reg); err != nil {
		return err
	}
	if err := c.Start(); err != nil {
		return err
	}
	if err := c.WriteAddr(devAddr, 1); err != nil {
		return err
	}
	offset, err := c.ReadByte()
	if err != nil {
		return err
	}
	if err := c.Stop(); err != nil {
		return err
	}
	return c.addSlot(offset, dest)
}

// WriteRegister appends start, write_addr(dev,W), write_byte(reg),
// write_byte(val), stop; all reply bytes are ACK-stream noise (§4.2
// write_register).
func (c *CommandBuffer) WriteRegister(devAddr, reg, val byte) error {
	if err := c.Start(); err != nil {
		return err
	}
	if err := c.WriteAddr(devAddr, 0); err != nil {
		return err
	}
	if err := c.WriteByte(reg); err != nil {
		return err
	}
	if err := c.WriteByte(val); err != nil {
		return err
	}
	return c.Stop()
}

// bridgeIO is the opaque external driver contract the executor needs:
// purge FIFOs, write the full command buffer, read back exactly n bytes
// (§1, §4.2). Implemented by the gousb-backed usbDriver.
type bridgeIO interface {
	Purge() error
	Write(buf []byte) error
	Read(n int) ([]byte, error)
}

// Execute runs the buffer against driver: purge, write, read exactly the
// expected reply length, then redistribute reply bytes into the recorded
// slots (§4.2 executor). A short read is a transport error, not silently
// tolerated.
func (c *CommandBuffer) Execute(driver bridgeIO) error {
	if err := driver.Purge(); err != nil {
		return newErr(KindTransportIO, "usb purge failed", err)
	}
	if len(c.buf) > 0 {
		if err := driver.Write(c.buf); err != nil {
			return newErr(KindTransportIO, "usb write failed", err)
		}
	}
	if c.expectReply == 0 {
		return nil
	}
	reply, err := driver.Read(c.expectReply)
	if err != nil {
		return newErr(KindTransportIO, "usb read failed", err)
	}
	if len(reply) != c.expectReply {
		return newErr(KindTransportIO, "short usb reply", nil)
	}
	for _, slot := range c.slots {
		if slot.offset < 0 || slot.offset >= len(reply) {
			return newErr(KindFramingError, "reply slot offset out of range", nil)
		}
		*slot.dest = reply[slot.offset]
	}
	return nil
}

// Chip returns the buffer's current chip state, for the owning Transport to
// persist across transactions.
func (c *CommandBuffer) Chip() ChipState {
	return c.chip
}
