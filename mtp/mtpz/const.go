// Package mtpz implements the MTPZ ("Zune") trusted-app handshake: a
// three-leg RSA/AES/SHA-1 challenge exchange over vendor operations
// 0x1000-0x1002 that upgrades a plain session to a "secure session" required
// before media-metadata writes and WiFi/PC-GUID configuration.
package mtpz

// RSA, hash and framing constants for the handshake, taken verbatim from the
// device-side protocol this client interoperates with.
const (
	RSAModulusSize    = 128 // 1024-bit RSA
	RSAPublicExponent = 0x10001
	HashSize          = 20 // SHA-1 digest length
	KeyDerivationConst = 107
	MessageHeaderSize = 156

	MarkerExponentLo = 0x01
	MarkerExponentHi = 0x00
	MarkerSize       = 0x80
)

// certificateMsgTag prefixes the host certificate blob sent in leg one.
var certificateMsgTag = [5]byte{0x02, 0x01, 0x01, 0x00, 0x00}

// ProbeOpCodeLo and ProbeOpCodeHi bound the MTPZ operation range a device
// must advertise in DeviceInfo before this client attempts a handshake.
const (
	ProbeOpCodeLo = 0x1000
	ProbeOpCodeHi = 0x1004
)

// Vendor operation codes for the three handshake legs.
const (
	OpLeg1 = 0x1000
	OpLeg2 = 0x1001
	OpLeg3 = 0x1002
)
