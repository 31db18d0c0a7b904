package seaio

import (
	"strconv"
	"strings"
)

const (
	prefixRTU = "sealevel_rtu://"
	prefixTCP = "sealevel_tcp://"
	prefixD2X = "sealevel_d2x://"
)

// acceptedProductIDs is the USB bridge product-id allow list (§6).
var acceptedProductIDs = map[USBProductID]bool{
	ProductSDL8111: true,
	ProductSDL8112: true,
	ProductSDL8113: true,
	ProductSDL8114: true,
	ProductSDL8115: true,
	ProductSDL8126: true,
}

// parsedTarget is the dispatcher's decoded form of a connection string
// (§4.4, §6).
type parsedTarget struct {
	kind    targetKind
	path    string
	hostport string
	pid     USBProductID
}

type targetKind int

const (
	targetNone targetKind = iota
	targetRTU
	targetTCP
	targetUSB
)

// parseConnectionString inspects the connection string prefix and decodes
// the remainder, rejecting anything else as InvalidArgument (§4.4, §6). Each
// prefix is exactly 15 characters, matched case-sensitively.
func parseConnectionString(s string) (parsedTarget, error) {
	switch {
	case strings.HasPrefix(s, prefixRTU):
		path := s[len(prefixRTU):]
		if path == "" {
			return parsedTarget{}, newErr(KindInvalidArgument, "empty rtu device path", nil)
		}
		return parsedTarget{kind: targetRTU, path: path}, nil

	case strings.HasPrefix(s, prefixTCP):
		hostPort := s[len(prefixTCP):]
		if hostPort == "" {
			return parsedTarget{}, newErr(KindInvalidArgument, "empty tcp host", nil)
		}
		return parsedTarget{kind: targetTCP, hostport: hostPort}, nil

	case strings.HasPrefix(s, prefixD2X):
		hexID := s[len(prefixD2X):]
		id, err := strconv.ParseUint(hexID, 16, 32)
		if err != nil {
			return parsedTarget{}, newErr(KindInvalidArgument, "malformed usb product id", err)
		}
		pid := USBProductID(id)
		if !acceptedProductIDs[pid] {
			return parsedTarget{}, newErr(KindUnsupported, "usb product id not supported", nil)
		}
		return parsedTarget{kind: targetUSB, pid: pid}, nil

	default:
		return parsedTarget{}, newErr(KindInvalidArgument, "unrecognized connection string prefix", nil)
	}
}
