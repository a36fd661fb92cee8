package mtpz

import (
	"encoding/hex"
	"math/big"
	"os"
	"strings"
)

// keys holds the host's long-term RSA identity plus the per-session device
// modulus, populated once leg one's reply is parsed. RSA here is raw modular
// exponentiation with a fixed marker-byte padding scheme, not PKCS#1; the
// standard crypto/rsa signing/verification entry points assume a padding
// this protocol does not use, so the handshake operates on N/D/E directly.
type keys struct {
	hostPubExp  *big.Int
	hostModulus *big.Int
	hostPrivExp *big.Int
	hostCert    []byte
	oemSeed     []byte

	deviceModulus *big.Int
}

// loadKeys parses the colon-separated .mtpz-data form: host RSA public
// exponent (decimal, conventionally 0x10001), host RSA modulus (hex), host
// RSA private exponent (hex), host certificate blob (hex), and a 160-bit OEM
// key seed (hex), in that order on a single non-empty line.
func loadKeys(path string) (*keys, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, KeyFileError{Path: path, Reason: err.Error()}
	}
	var line string
	for _, l := range strings.Split(string(raw), "\n") {
		l = strings.TrimSpace(l)
		if l != "" && !strings.HasPrefix(l, "#") {
			line = l
			break
		}
	}
	if line == "" {
		return nil, KeyFileError{Path: path, Reason: "no data line found"}
	}
	fields := strings.Split(line, ":")
	if len(fields) != 5 {
		return nil, KeyFileError{Path: path, Reason: "expected 5 colon-separated fields"}
	}

	pubExp, ok := new(big.Int).SetString(fields[0], 10)
	if !ok {
		return nil, KeyFileError{Path: path, Reason: "malformed host public exponent"}
	}
	modulusBytes, err := hex.DecodeString(fields[1])
	if err != nil || len(modulusBytes) != RSAModulusSize {
		return nil, KeyFileError{Path: path, Reason: "host modulus must be 128 hex-encoded bytes"}
	}
	privExpBytes, err := hex.DecodeString(fields[2])
	if err != nil {
		return nil, KeyFileError{Path: path, Reason: "malformed host private exponent"}
	}
	cert, err := hex.DecodeString(fields[3])
	if err != nil {
		return nil, KeyFileError{Path: path, Reason: "malformed host certificate blob"}
	}
	seed, err := hex.DecodeString(fields[4])
	if err != nil || len(seed) != 20 {
		return nil, KeyFileError{Path: path, Reason: "OEM key seed must be 160 bits"}
	}

	return &keys{
		hostPubExp:  pubExp,
		hostModulus: new(big.Int).SetBytes(modulusBytes),
		hostPrivExp: new(big.Int).SetBytes(privExpBytes),
		hostCert:    cert,
		oemSeed:     seed,
	}, nil
}
