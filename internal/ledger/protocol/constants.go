package protocol

// opcode enumerates the instructions understood by the Waves application.
type opcode byte

// param1 enumerates the P1 values of the supported instructions. The same value may
// be reused between opcodes.
type param1 byte

const (
	// AppID names the on-device application. The device dispatches on it, so it must
	// never change.
	AppID = "WAVES"

	claWaves byte = 0x80 // Class byte of every Waves APDU

	opSignChunk   opcode = 0x02 // Signs a buffer sent over one or more chunks
	opDeriveKey   opcode = 0x04 // Returns the public key and address for a BIP 32 path
	opGetVersion  opcode = 0x06 // Returns the application version
	opNoParameter byte   = 0x00

	p1ConfirmOnScreen param1 = 0x80 // Show the address and wait for confirmation
	p1NoConfirm       param1 = 0x00 // Return the address directly
	p1MoreChunks      param1 = 0x00 // More signing chunks follow
	p1LastChunk       param1 = 0x80 // Final signing chunk

	// StatusOK is the status word of a successful exchange.
	StatusOK uint16 = 0x9000

	// MaxAPDUSize is the largest APDU the application accepts, header included.
	MaxAPDUSize = 128
	// ChunkSize is the payload room left in one signing APDU.
	ChunkSize = MaxAPDUSize - 5

	PublicKeyLength = 32
	AddressLength   = 35
	StatusLength    = 2

	// DefaultPrecision is the decimal precision of WAVES amounts.
	DefaultPrecision = 8
	// DefaultNetworkCode is the chain byte used when none is configured.
	DefaultNetworkCode = 76

	TypeOrder   = 0xFC
	TypeRawData = 0xFD
	TypeRequest = 0xFE
	TypeMessage = 0xFF

	maxByte = 0xFF
)

// operations are the engine methods bound to the application on the transport.
var operations = []string{"DeriveKey", "SignChunked", "Version"}
