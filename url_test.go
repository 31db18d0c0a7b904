package seaio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConnectionStringRTU(t *testing.T) {
	target, err := parseConnectionString("sealevel_rtu:///dev/ttyUSB0")
	require.NoError(t, err)
	require.Equal(t, targetRTU, target.kind)
	require.Equal(t, "/dev/ttyUSB0", target.path)
}

func TestParseConnectionStringTCPDefaultPort(t *testing.T) {
	target, err := parseConnectionString("sealevel_tcp://host.example")
	require.NoError(t, err)
	require.Equal(t, targetTCP, target.kind)
	require.Equal(t, "host.example", target.hostport)
}

func TestParseConnectionStringTCPExplicitPort(t *testing.T) {
	// §8 scenario E.
	target, err := parseConnectionString("sealevel_tcp://host.example:1502")
	require.NoError(t, err)
	require.Equal(t, targetTCP, target.kind)
	require.Equal(t, "host.example:1502", target.hostport)
}

func TestParseConnectionStringUSBAccepted(t *testing.T) {
	target, err := parseConnectionString("sealevel_d2x://8111")
	require.NoError(t, err)
	require.Equal(t, targetUSB, target.kind)
	require.Equal(t, ProductSDL8111, target.pid)
}

func TestParseConnectionStringUSBRejectsUnknownID(t *testing.T) {
	_, err := parseConnectionString("sealevel_d2x://dead")
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, KindUnsupported, serr.Kind)
}

func TestParseConnectionStringUnrecognizedPrefix(t *testing.T) {
	_, err := parseConnectionString("ftp://somewhere")
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, KindInvalidArgument, serr.Kind)
}

func TestParseConnectionStringEmptyPath(t *testing.T) {
	_, err := parseConnectionString("sealevel_rtu://")
	require.Error(t, err)
}
