package mtpz

import "fmt"

// KeyFileError reports a malformed .mtpz-data key file.
type KeyFileError struct {
	Path   string
	Reason string
}

func (e KeyFileError) Error() string {
	return fmt.Sprintf("mtpz: key file %s: %s", e.Path, e.Reason)
}

// HandshakeError reports a failed handshake leg. Once raised, the
// originating TrustedApp is invalid and must be re-created.
type HandshakeError struct {
	Leg    string
	Reason string
}

func (e HandshakeError) Error() string {
	return fmt.Sprintf("mtpz: handshake leg %s: %s", e.Leg, e.Reason)
}

// VerificationFailed is the HandshakeError.Reason value raised when the
// device's signed reply does not verify against the device's own RSA
// modulus, as parsed from leg one. A single corrupted byte anywhere in the
// modulus or nonce leg one delivered, or in the device's leg-two signature
// itself, lands here.
const VerificationFailed = "device signature verification failed"
