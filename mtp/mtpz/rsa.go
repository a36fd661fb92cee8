package mtpz

import (
	"bytes"
	"crypto/sha1"
	"math/big"
)

// rsaExp performs c = m^e mod n, the raw primitive this handshake builds its
// signing and WiFi-password encryption operations on. The device speaks a
// fixed marker-byte padding, not PKCS#1, so crypto/rsa's higher-level
// Sign/Verify/Encrypt entry points do not apply here.
func rsaExp(m, e, n *big.Int) *big.Int {
	return new(big.Int).Exp(m, e, n)
}

// signBlock builds the fixed padding this protocol signs: a leading
// exponent-size marker, zero padding, a single 0x80 marker byte, and the
// trailing SHA-1 digest, exponentiated with the host private exponent.
func signBlock(priv *keys, digest []byte) []byte {
	block := make([]byte, RSAModulusSize)
	block[0] = MarkerExponentLo
	block[1] = MarkerExponentHi
	block[RSAModulusSize-HashSize-1] = MarkerSize
	copy(block[RSAModulusSize-HashSize:], digest)

	m := new(big.Int).SetBytes(block)
	sig := rsaExp(m, priv.hostPrivExp, priv.hostModulus)
	return leftPad(sig.Bytes(), RSAModulusSize)
}

// encryptPublic applies the device's public RSA operation (fixed exponent
// 0x10001) to plaintext, used both to verify the device's signed replies and
// to implement EncryptWiFiPassword.
func encryptPublic(deviceModulus *big.Int, plaintext []byte) []byte {
	m := new(big.Int).SetBytes(plaintext)
	e := big.NewInt(RSAPublicExponent)
	c := rsaExp(m, e, deviceModulus)
	return leftPad(c.Bytes(), RSAModulusSize)
}

// verifySignedBlock undoes the device's signature with the public RSA
// operation and checks the recovered block against signBlock's padding
// layout: the same leading exponent marker and 0x80 size marker the host
// applies when it signs, with digest in the trailing HashSize bytes. It
// reports whether the recovered digest matches digest exactly.
func verifySignedBlock(deviceModulus *big.Int, sig, digest []byte) bool {
	if len(sig) != RSAModulusSize || len(digest) != HashSize {
		return false
	}
	block := encryptPublic(deviceModulus, sig)
	if block[0] != MarkerExponentLo || block[1] != MarkerExponentHi {
		return false
	}
	if block[RSAModulusSize-HashSize-1] != MarkerSize {
		return false
	}
	return bytes.Equal(block[RSAModulusSize-HashSize:], digest)
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

func sha1Sum(parts ...[]byte) []byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// deriveSessionKey expands the mutual nonces into a 16-byte AES-128 key by
// repeated concatenation-and-hash, per KeyDerivationConst iterations.
func deriveSessionKey(hostNonce, deviceNonce []byte) []byte {
	acc := sha1Sum(hostNonce, deviceNonce)
	for i := 0; i < KeyDerivationConst; i++ {
		acc = sha1Sum(acc, hostNonce, deviceNonce)
	}
	return acc[:16]
}
