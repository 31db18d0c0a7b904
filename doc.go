// Package seaio is a host-side access library for the SeaMAX/SeaDAC family
// of industrial digital/analog I/O modules. Modules expose their I/O over
// one of three transports: a serial line running a fieldbus request/response
// framing ("RTU"), the same framing wrapped in a TCP stream ("TCP"), or a
// USB-attached bridge chip driven directly in bit-banged / synchronous-serial
// mode to emulate the two-wire bus used by the "Lite" module family.
//
// A Session is the single entry point: Create, Open a connection string,
// then Read/Write/Ioctl against it. The RTU and TCP transports speak the
// fieldbus frame codec in frame.go; the USB transport drives a batched
// command assembler (usb_assembler.go) instead.
//
// The extended A/D range probe, a composed sequence built only from a
// Session's public Read/Write/Ioctl calls, lives in the probe subpackage
// rather than in this package, so it never gains access to transport
// internals it doesn't need.
package seaio
