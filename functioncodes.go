package seaio

// FunctionCode is the one-byte fieldbus function selector carried in every
// frame (§4.1).
type FunctionCode byte

const (
	FuncReadCoils             FunctionCode = 0x01
	FuncReadDiscreteInputs    FunctionCode = 0x02
	FuncReadHoldingRegisters  FunctionCode = 0x03
	FuncReadInputRegisters    FunctionCode = 0x04
	FuncWriteSingleRegister   FunctionCode = 0x06
	FuncWriteMultipleCoils    FunctionCode = 0x0F
	FuncWriteMultipleRegs     FunctionCode = 0x10
	FuncGetDeviceParams       FunctionCode = 0x41
	FuncSetPIODirection       FunctionCode = 0x42
	FuncGetPIODirection       FunctionCode = 0x43
	FuncSetPIOValue           FunctionCode = 0x44
	FuncReadCommParams        FunctionCode = 0x45
	FuncSetSlaveAddress       FunctionCode = 0x46
	FuncSetCommParams         FunctionCode = 0x47
	FuncSetADDAConfig         FunctionCode = 0x64
	FuncGetADDAConfig         FunctionCode = 0x65
	FuncGetExtendedConfig     FunctionCode = 0x66
)

// invalidFunction marks a read/write "type" selector with no corresponding
// function code (§4.3: read/write translation tables).
const invalidFunction FunctionCode = 0x00

// readFunctionByType is the read-side type-to-function table (§4.3, type 1..6).
var readFunctionByType = [6]FunctionCode{
	FuncReadCoils,
	FuncReadDiscreteInputs,
	FuncReadHoldingRegisters,
	FuncReadInputRegisters,
	FuncReadCommParams,
	FuncGetDeviceParams,
}

// writeFunctionByType is the write-side type-to-function table (§4.3). Types
// 2, 4 and 5 have no write function and are rejected with InvalidArgument.
var writeFunctionByType = [6]FunctionCode{
	FuncWriteMultipleCoils,
	invalidFunction,
	FuncWriteSingleRegister,
	invalidFunction,
	invalidFunction,
	FuncSetPIODirection,
}

// IOCTLSelector identifies which ioctl-style operation Session.Ioctl performs
// (§4.3, §6).
type IOCTLSelector int

const (
	IoctlReadCommParam IOCTLSelector = iota + 1
	IoctlSetAddress
	IoctlSetCommParam
	IoctlGetPIO
	IoctlSetPIO
	IoctlGetADDAConfig
	IoctlSetADDAConfig
	IoctlGetExtConfig
	IoctlGetADDAExtConfig
)

// ioctlFunctionBySelector is the ioctl-to-function table (§4.3, which 1..8;
// which=9 is handled separately as the composed extended A/D probe).
var ioctlFunctionBySelector = [8]FunctionCode{
	FuncReadCommParams,
	FuncSetSlaveAddress,
	FuncSetCommParams,
	FuncGetPIODirection,
	FuncSetPIOValue,
	FuncGetADDAConfig,
	FuncSetADDAConfig,
	FuncGetExtendedConfig,
}

// expectedReplyLen returns the function-specific expected payload length used
// to size the read (§4.1 decoding table). qty is the request quantity, only
// used by the read-register functions.
func expectedReplyLen(fcode FunctionCode, qty int) int {
	switch fcode {
	case FuncReadCoils, FuncReadDiscreteInputs:
		n := 1 + qty/8
		if qty%8 != 0 {
			n++
		}
		return n
	case FuncReadHoldingRegisters, FuncReadInputRegisters:
		return 1 + 2*qty
	case FuncWriteSingleRegister, FuncWriteMultipleCoils, FuncWriteMultipleRegs:
		return 4
	case FuncGetDeviceParams:
		return 15
	case FuncSetPIODirection:
		return 12
	case FuncGetPIODirection:
		return 3
	case FuncSetPIOValue:
		return 1
	case FuncReadCommParams:
		return 5
	case FuncSetSlaveAddress, FuncSetCommParams:
		return 3
	case FuncSetADDAConfig:
		return 1
	case FuncGetADDAConfig:
		return 5
	case FuncGetExtendedConfig:
		return 16
	default:
		return 1
	}
}

// isWriteFunction reports whether fcode is one of the "writes don't get data
// back, they provide it" functions seamaxlin.c's getResponse short-circuits
// on (0x06, 0x10, 0x0F, 0x42, 0x64) — every other "set"-style function
// (0x44, 0x46, 0x47) still echoes a reply the caller wants copied back. Used
// by Session.Ioctl to decide whether to copy the decoded payload back into
// the caller's inout buffer.
func isWriteFunction(fcode FunctionCode) bool {
	switch fcode {
	case FuncWriteSingleRegister, FuncWriteMultipleCoils, FuncWriteMultipleRegs,
		FuncSetPIODirection, FuncSetADDAConfig:
		return true
	default:
		return false
	}
}
