package seaio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommParams(t *testing.T) {
	// model = 256 + buf[0], bridge/baud/parity/cookie each ride their own
	// byte (seamaxlin.c's GET_PARAMS unpacking, not a packed-nibble layout).
	buf := []byte{0x05, 0x03, 0x04, 0x01, 0x7E}
	p, err := ParseCommParams(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(261), p.Model)
	require.Equal(t, byte(3), p.BridgeType)
	require.Equal(t, Baud9600, p.BaudRate)
	require.Equal(t, ParityOdd, p.Parity)
	require.Equal(t, byte(0x7E), p.MagicCookie)
}

func TestParseCommParamsTooShort(t *testing.T) {
	_, err := ParseCommParams([]byte{0x01})
	require.Error(t, err)
}

func TestADDAConfigRoundTrip(t *testing.T) {
	cfg := ADDAConfig{ReferenceOffset: ReferenceDAChannel1, ChannelMode: ModeSingleEnded}
	cfg.Channels[0] = ChannelConfig{Range: RangeZeroToTen, Mode: ModeSingleEnded}
	cfg.Channels[1] = ChannelConfig{Range: RangePlusMinusFive, Mode: ModeSingleEnded}

	encoded := EncodeADDAConfig(cfg)
	require.Len(t, encoded, 5)

	decoded := ParseADDAConfig(encoded)
	require.Equal(t, cfg.ReferenceOffset, decoded.ReferenceOffset)
	require.Equal(t, cfg.ChannelMode, decoded.ChannelMode)
	require.Equal(t, cfg.Channels[0].Range, decoded.Channels[0].Range)
	require.Equal(t, cfg.Channels[1].Range, decoded.Channels[1].Range)
}

func TestParseADDAExtConfig(t *testing.T) {
	buf := []byte{0x01, byte(RangeZeroToTen), byte(RangePlusMinusTen)}
	cfg := ParseADDAExtConfig(buf)
	require.True(t, cfg.ADMultiplierEnabled)
	require.Equal(t, RangeZeroToTen, cfg.DAChannel1Range)
	require.Equal(t, RangePlusMinusTen, cfg.DAChannel2Range)
}

func TestPackUnpackPIOConfigSwapsChannels(t *testing.T) {
	cfg := PIOConfig{Channel1: 0x112233445566, Channel2: 0xAABBCCDDEEFF}
	packed := PackPIOConfig(cfg)
	require.Len(t, packed, 12)
	// byte 0 carries Channel2's low byte, byte 6 carries Channel1's low byte
	// (seamaxlin.c's channel swap quirk, preserved verbatim).
	require.Equal(t, byte(0xFF), packed[0])
	require.Equal(t, byte(0x66), packed[6])

	roundTrip := UnpackPIOConfig(packed[0:2])
	require.Equal(t, uint64(packed[1]), roundTrip.Channel1)
	require.Equal(t, uint64(packed[0]), roundTrip.Channel2)
}

func TestBitbangDirectionMaskTable(t *testing.T) {
	cases := []struct {
		pid   USBProductID
		mask  byte
		mpsse bool
	}{
		{ProductSDL8111, 0xF0, false},
		{ProductSDL8112, 0xF0, false},
		{ProductSDL8113, 0x00, false},
		{ProductSDL8114, 0xFF, false},
		{ProductSDL8115, 0xFF, false},
		{ProductSDL8126, 0xF0, true},
	}
	for _, c := range cases {
		mask, mpsse, ok := bitbangDirectionMask(c.pid)
		require.True(t, ok)
		require.Equal(t, c.mask, mask)
		require.Equal(t, c.mpsse, mpsse)
	}

	_, _, ok := bitbangDirectionMask(USBProductID(0xDEAD))
	require.False(t, ok)
}
