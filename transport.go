package seaio

import "context"

// transport is the uniform contract the Session drives regardless of which
// variant is open: send a request frame, receive the response, and
// open/close the underlying carrier (§2 component 2, §3 Transport). recv's n
// is the expected response length; the serial variant reads exactly n bytes,
// while the TCP variant sizes the read from the response's own header.
type transport interface {
	send(ctx context.Context, frame []byte) error
	recv(ctx context.Context, n int) ([]byte, error)
	close() error
}

// fieldbusTransport is implemented by the two transports that speak the
// RTU/TCP frame codec (serial, TCP), as opposed to the USB bridge which
// speaks the assembler protocol instead.
type fieldbusTransport interface {
	transport
	kind() TransportKind
	nextTxID() uint16
}
