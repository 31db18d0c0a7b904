package seaio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRCRoundTrip(t *testing.T) {
	lengths := []int{1, 2, 7, 64, 253}
	for _, n := range lengths {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(i*31 + n)
		}
		framed := appendCRC(append([]byte{}, b...))
		stripped, err := stripCRC(framed)
		require.NoError(t, err)
		require.Equal(t, b, stripped)
	}
}

func TestCRCKnownVector(t *testing.T) {
	// 05 01 00 00 00 04 (the scenario A read-coils request) -> CRC 0x4D3C,
	// sent low byte first as 3C 4D.
	b := []byte{0x05, 0x01, 0x00, 0x00, 0x00, 0x04}
	require.Equal(t, uint16(0x4D3C), crc16(b))

	framed := appendCRC(append([]byte{}, b...))
	require.Len(t, framed, len(b)+2)
	require.Equal(t, []byte{0x3C, 0x4D}, framed[len(b):])
	_, err := stripCRC(framed)
	require.NoError(t, err)
}

func TestStripCRCRejectsMismatch(t *testing.T) {
	b := appendCRC([]byte{0x01, 0x02, 0x03})
	b[len(b)-1] ^= 0xFF
	_, err := stripCRC(b)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, KindFramingError, serr.Kind)
}
