package seaio

// SeaIOType selects the data-point class a Read/Write operation addresses,
// matching the original seaio_type_t (§3, §6).
type SeaIOType int

const (
	TypeCoils SeaIOType = iota + 1
	TypeDiscreteInputs
	TypeHoldingRegisters
	TypeInputRegisters
	TypeSetupRegisters
	TypeSeaMaxPIO
)

// BaudRate enumerates the fixed RTU line speeds the device family accepts,
// numbered to match seamaxlin.h's baud_rates_t wire values exactly — these
// are not the termios bit values (§3, see DESIGN.md).
type BaudRate int

const (
	BaudNone BaudRate = iota
	Baud1200
	Baud2400
	Baud4800
	Baud9600
	Baud14400
	Baud19200
	Baud28800
	Baud38400
	Baud57600
	Baud115200
)

// Parity enumerates the RTU line parity settings (§3).
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// CommParams is the decoded payload of a read-comm-params / IoctlReadCommParam
// operation: device model, bridge type, line parameters and the "magic
// cookie" the device echoes to confirm protocol compatibility (§3, §6).
type CommParams struct {
	Model       uint16
	BridgeType  byte
	BaudRate    BaudRate
	Parity      Parity
	MagicCookie byte
}

// PIOConfig is the 96-bit-wide PIO direction/state register pair addressed by
// IOCTL_t selectors 4/5 and function codes 0x42/0x43/0x44. Channel1/Channel2
// hold the low/high halves of the 96 lines as seen by the caller; the wire
// encoding swaps them — see PackPIOConfig/UnpackPIOConfig and DESIGN.md.
type PIOConfig struct {
	Channel1 uint64
	Channel2 uint64
}

// ChannelRange is the configured input/output span of an analog channel
// (§3, seaio_channel_range_type).
type ChannelRange int

const (
	RangeZeroToFive ChannelRange = iota
	RangePlusMinusFive
	RangeZeroToTen
	RangePlusMinusTen
)

// ChannelMode is the electrical wiring mode of an analog channel (§3,
// seaio_channel_mode_type).
type ChannelMode int

const (
	ModeSingleEnded ChannelMode = iota
	ModeDifferential
	ModeCurrentLoop
)

// ADReference selects what an A/D conversion is measured against, including
// the two reference channels the extended probe steps through one D/A output
// at a time (§3, seaio_ad_reference_type).
type ADReference int

const (
	ReferenceAnalogOffset ADReference = iota
	ReferenceGroundOffset
	ReferenceADOffset
	ReferenceDAChannel1
	ReferenceDAChannel2
)

// ChannelConfig is the per-channel range/mode pair packed two bits at a time
// into the wire's ADDAConfig payload (§3, §6).
type ChannelConfig struct {
	Range ChannelRange
	Mode  ChannelMode
}

// ADDAConfig is the decoded analog configuration block: a device-level
// reference offset and mode, plus up to 16 per-channel configs (§3, §6).
type ADDAConfig struct {
	ReferenceOffset ADReference
	ChannelMode     ChannelMode
	Channels        [16]ChannelConfig
}

// ADDAExtConfig carries the newer device family's extended analog config:
// whether the A/D multiplier is enabled, and the configured output range of
// each D/A channel (§3, §6).
type ADDAExtConfig struct {
	ADMultiplierEnabled bool
	DAChannel1Range     ChannelRange
	DAChannel2Range     ChannelRange
}

// USBProductID identifies a supported SeaDAC Lite USB bridge chip by its
// device-family product id (§6, seadaclite.c's sdl_range_type).
type USBProductID int

const (
	ProductSDL8111 USBProductID = 0x8111
	ProductSDL8112 USBProductID = 0x8112
	ProductSDL8113 USBProductID = 0x8113
	ProductSDL8114 USBProductID = 0x8114
	ProductSDL8115 USBProductID = 0x8115
	ProductSDL8126 USBProductID = 0x8126
)

// bitbangDirectionMask returns the GPIO direction byte openD2X programs for
// each supported product id, or ok=false for an unsupported id (§6).
func bitbangDirectionMask(pid USBProductID) (mask byte, mpsse bool, ok bool) {
	switch pid {
	case ProductSDL8111, ProductSDL8112:
		return 0xF0, false, true
	case ProductSDL8113:
		return 0x00, false, true
	case ProductSDL8114, ProductSDL8115:
		return 0xFF, false, true
	case ProductSDL8126:
		return 0xF0, true, true
	default:
		return 0, false, false
	}
}

// PackPIOConfig serializes a PIOConfig into the 12-byte wire form used by
// function code 0x42 (set PIO direction). seamaxlin.c swaps the two channel
// halves relative to their struct order: bytes 0-5 carry the low 48 bits of
// Channel2 and bytes 6-11 those of Channel1, each least significant byte
// first. This is a real device quirk, preserved rather than "fixed" — see
// DESIGN.md.
func PackPIOConfig(cfg PIOConfig) []byte {
	buf := make([]byte, 12)
	putUint48(buf[0:6], cfg.Channel2)
	putUint48(buf[6:12], cfg.Channel1)
	return buf
}

// UnpackPIOConfig decodes the decode()-stripped reply of function code 0x43
// (get PIO direction) back into a PIOConfig. decode returns the 3-byte reply
// payload unchanged; only its first 2 bytes are read, byte 0 into Channel2
// and byte 1 into Channel1, mirroring the channel swap PackPIOConfig applies
// on the write side.
func UnpackPIOConfig(buf []byte) PIOConfig {
	var cfg PIOConfig
	if len(buf) < 2 {
		return cfg
	}
	cfg.Channel2 = uint64(buf[0])
	cfg.Channel1 = uint64(buf[1])
	return cfg
}

func putUint48(dst []byte, v uint64) {
	for i := 0; i < len(dst); i++ {
		dst[i] = byte(v >> (8 * uint(i)))
	}
}
