package seaio

import "encoding/binary"

// TransportKind selects which wire framing encode/decode apply (§4.1).
type TransportKind int

const (
	TransportSerial TransportKind = iota
	TransportTCP
)

// frameOverhead is the byte count added around [slave, fcode, body] by each
// transport's framing: 2 CRC bytes for Serial, the 6-byte MBAP-style header
// for TCP.
func frameOverhead(kind TransportKind) int {
	if kind == TransportTCP {
		return 6
	}
	return 2
}

// encode builds the wire bytes for a request (§4.1's encoding table). start
// is already 0-based; callers translating a 1-based public API argument must
// subtract 1 before calling encode.
func encode(slave byte, fcode FunctionCode, start, qty uint16, data []byte, kind TransportKind, txid uint16) ([]byte, error) {
	body, err := encodeBody(fcode, start, qty, data)
	if err != nil {
		return nil, err
	}

	pdu := make([]byte, 0, 2+len(body))
	pdu = append(pdu, slave, byte(fcode))
	pdu = append(pdu, body...)

	if len(pdu)+frameOverhead(kind) > 255 {
		return nil, newErr(KindOutOfRange, "encoded frame exceeds 255 bytes", nil)
	}

	switch kind {
	case TransportSerial:
		return appendCRC(pdu), nil
	case TransportTCP:
		frame := make([]byte, 6, 6+len(pdu))
		binary.BigEndian.PutUint16(frame[0:2], txid)
		binary.BigEndian.PutUint16(frame[2:4], 0)
		binary.BigEndian.PutUint16(frame[4:6], uint16(len(pdu)))
		frame = append(frame, pdu...)
		return frame, nil
	default:
		return nil, newErr(KindInvalidArgument, "unknown transport kind", nil)
	}
}

// encodeBody builds the body bytes following [slave, fcode] per the table in
// §4.1. qty is reused as the "value" field for 0x06 and as the byte count
// driver for 0x0F/0x10.
func encodeBody(fcode FunctionCode, start, qty uint16, data []byte) ([]byte, error) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, start)

	switch fcode {
	case FuncReadCoils, FuncReadDiscreteInputs, FuncReadHoldingRegisters, FuncReadInputRegisters:
		qb := make([]byte, 2)
		binary.BigEndian.PutUint16(qb, qty)
		return append(buf, qb...), nil

	case FuncWriteSingleRegister:
		vb := make([]byte, 2)
		binary.BigEndian.PutUint16(vb, qty)
		return append(buf, vb...), nil

	case FuncWriteMultipleCoils:
		byteCount := (int(qty) + 7) / 8
		if len(data) < byteCount {
			return nil, newErr(KindInvalidArgument, "short coil payload", nil)
		}
		qb := make([]byte, 2)
		binary.BigEndian.PutUint16(qb, qty)
		out := append(buf, qb...)
		out = append(out, byte(byteCount))
		return append(out, data[:byteCount]...), nil

	case FuncWriteMultipleRegs:
		byteCount := int(qty) * 2
		if len(data) < byteCount {
			return nil, newErr(KindInvalidArgument, "short register payload", nil)
		}
		qb := make([]byte, 2)
		binary.BigEndian.PutUint16(qb, qty)
		out := append(buf, qb...)
		out = append(out, byte(byteCount))
		return append(out, data[:byteCount]...), nil

	case FuncGetDeviceParams, FuncGetPIODirection, FuncReadCommParams, FuncGetADDAConfig, FuncGetExtendedConfig:
		return nil, nil

	case FuncSetPIODirection:
		if len(data) < 12 {
			return nil, newErr(KindInvalidArgument, "pio direction payload must be 12 bytes", nil)
		}
		return append([]byte{}, data[:12]...), nil

	case FuncSetPIOValue:
		if len(data) < 2 {
			return nil, newErr(KindInvalidArgument, "pio value payload must be 2 bytes", nil)
		}
		return append([]byte{}, data[:2]...), nil

	case FuncSetSlaveAddress, FuncSetCommParams:
		if len(data) < 3 {
			return nil, newErr(KindInvalidArgument, "payload must be 3 bytes", nil)
		}
		return append([]byte{}, data[:3]...), nil

	case FuncSetADDAConfig:
		if len(data) < 5 {
			return nil, newErr(KindInvalidArgument, "a/d config payload must be 5 bytes", nil)
		}
		return append([]byte{}, data[:5]...), nil

	default:
		return nil, newErr(KindInvalidArgument, "unknown function code", nil)
	}
}

// decode parses a response buffer already read from the transport into the
// caller-visible payload (for Serial, exactly the length decodeLength reports;
// for TCP, the 6-byte header plus the body length that header carries). fcode
// is the function code of the original request.
func decode(fcode FunctionCode, kind TransportKind, raw []byte) ([]byte, error) {
	var pdu []byte
	switch kind {
	case TransportSerial:
		body, err := stripCRC(raw)
		if err != nil {
			return nil, err
		}
		if len(body) < 2 {
			return nil, newErr(KindFramingError, "response too short", nil)
		}
		pdu = body
	case TransportTCP:
		if len(raw) < 8 {
			return nil, newErr(KindFramingError, "response too short", nil)
		}
		pdu = raw[6:]
	default:
		return nil, newErr(KindInvalidArgument, "unknown transport kind", nil)
	}

	respFcode := FunctionCode(pdu[1])
	if respFcode != fcode {
		if len(pdu) < 3 {
			return nil, newErr(KindFramingError, "exception frame too short", nil)
		}
		return nil, exceptionErr(pdu[2])
	}

	payload := pdu[2:]

	switch {
	case fcode < 0x05:
		// 0x01-0x04: strip the leading byte-count byte.
		if len(payload) < 1 {
			return nil, newErr(KindFramingError, "missing byte count", nil)
		}
		return payload[1:], nil
	case fcode == FuncGetDeviceParams:
		// seamaxlin.c's getResponse strips slave+fcode+3 for this function;
		// slave+fcode are already gone (pdu[2:]), so 3 more here.
		if len(payload) < 3 {
			return nil, newErr(KindFramingError, "device params payload too short", nil)
		}
		return payload[3:], nil
	case fcode > 0x40:
		// these "get" functions carry no byte-count byte on top of the
		// stripped fcode; return the payload as-is.
		return payload, nil
	default:
		return payload, nil
	}
}

// decodeLength returns the total byte count to read from the transport for a
// response to fcode, including framing overhead: slave + fcode + payload +
// 2 CRC bytes for Serial, or the 6-byte header + slave + fcode + payload for
// TCP (§4.1, §8 scenario B: a 4-byte write-register payload rides inside a
// 12-byte TCP response, header(6) + slave/fcode/payload(6)).
func decodeLength(fcode FunctionCode, kind TransportKind, qty int) int {
	n := expectedReplyLen(fcode, qty)
	if kind == TransportTCP {
		return n + 8
	}
	return n + 4
}
