// Package probe implements the extended A/D range probe, a composed
// operation built only from a Session's public Read/Write/Ioctl primitives
// (it defines no new wire protocol; see the design note in the root
// package's documentation).
package probe

import "github.com/AlSharp/seaDAC-8111"

// D/A channel test value: roughly 1V of a 12-bit 0..0xFFF output,
// seamaxlin.c's GetExtendedADDAConfig probe constant.
const daProbeValue = 0x0199

// ChannelResult is one D/A channel's classified range after probing.
type ChannelResult struct {
	Channel      int
	Range        seaio.ChannelRange
	MultiplierOn bool
}

// twoChannelModels lists the device models GetExtendedADDAConfig actually
// iterates D/A channels for; every other model probes zero channels and
// trivially succeeds (seamaxlin.c, preserved per DESIGN.md).
var twoChannelModels = map[uint16]bool{
	470:  true,
	8227: true,
}

// classify maps a raw A/D readback into one of the four documented bands, or
// reports NotReady if the value falls in none of them (§4.3 Extended A/D
// probe, numeric constants preserved verbatim).
func classify(value uint16) (rng seaio.ChannelRange, multiplierOn bool, ok bool) {
	switch {
	case value >= 0x171 && value < 0x1C1:
		return seaio.RangeZeroToTen, false, true
	case value >= 0xB8 && value < 0xE0:
		return seaio.RangeZeroToFive, false, true
	case value > 0xE66 && value <= 0xFFF:
		return seaio.RangeZeroToTen, true, true
	case value > 0x737 && value < 0x8C7:
		return seaio.RangeZeroToFive, true, true
	default:
		return 0, false, false
	}
}

// ExtendedADDA runs the extended A/D range probe against slave on an already
// open session: for each D/A channel the device model supports (0 or 2), it
// drives a known output value, reconfigures the A/D mux onto that D/A
// channel, reads back the conversion, and classifies the result. The
// original A/D configuration is restored and both D/A outputs are zeroed
// before returning, whether the probe succeeds or fails.
func ExtendedADDA(s *seaio.Session, slave byte) ([]ChannelResult, error) {
	var params [4]byte
	if err := s.Ioctl(slave, seaio.IoctlReadCommParam, params[:]); err != nil {
		return nil, err
	}
	commParams, err := seaio.ParseCommParams(params[:])
	if err != nil {
		return nil, err
	}

	channelCount := 0
	if twoChannelModels[commParams.Model] {
		channelCount = 2
	}
	if channelCount == 0 {
		return nil, nil
	}

	var original [4]byte
	if err := s.Ioctl(slave, seaio.IoctlGetADDAConfig, original[:]); err != nil {
		return nil, err
	}
	originalConfig := seaio.ParseADDAConfig(original[:])

	results := make([]ChannelResult, 0, channelCount)
	probeErr := func() error {
		for ch := 1; ch <= channelCount; ch++ {
			if err := writeDAC(s, slave, ch, daProbeValue); err != nil {
				return err
			}

			reference := seaio.ReferenceDAChannel1
			if ch == 2 {
				reference = seaio.ReferenceDAChannel2
			}
			probeConfig := originalConfig
			probeConfig.ReferenceOffset = reference
			probeConfig.ChannelMode = seaio.ModeSingleEnded
			encoded := seaio.EncodeADDAConfig(probeConfig)
			if err := s.Ioctl(slave, seaio.IoctlSetADDAConfig, encoded); err != nil {
				return err
			}

			raw, err := readAD(s, slave, ch)
			if err != nil {
				return err
			}

			rng, multiplierOn, ok := classify(raw)
			if !ok {
				return newNotReady()
			}
			results = append(results, ChannelResult{Channel: ch, Range: rng, MultiplierOn: multiplierOn})
		}
		return nil
	}()

	restoreErr := restore(s, slave, originalConfig, channelCount)

	if probeErr != nil {
		return nil, probeErr
	}
	if restoreErr != nil {
		return nil, restoreErr
	}
	return results, nil
}

func writeDAC(s *seaio.Session, slave byte, channel int, value uint16) error {
	buf := []byte{byte(value >> 8), byte(value)}
	_, err := s.Write(slave, seaio.TypeHoldingRegisters, uint16(channel), 1, buf)
	return err
}

func readAD(s *seaio.Session, slave byte, channel int) (uint16, error) {
	buf := make([]byte, 2)
	_, err := s.Read(slave, seaio.TypeInputRegisters, uint16(channel), 1, buf)
	if err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// restore puts the original A/D config back and zeroes both D/A outputs,
// regardless of whether the probe itself succeeded.
func restore(s *seaio.Session, slave byte, original seaio.ADDAConfig, channelCount int) error {
	if err := s.Ioctl(slave, seaio.IoctlSetADDAConfig, seaio.EncodeADDAConfig(original)); err != nil {
		return err
	}
	for ch := 1; ch <= channelCount; ch++ {
		if err := writeDAC(s, slave, ch, 0); err != nil {
			return err
		}
	}
	return nil
}

func newNotReady() error {
	return seaio.ErrNotReady
}
