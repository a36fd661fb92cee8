package mtpz

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/gomtp/mtpcore/mtp"
)

// state is the handshake progression; any failure is terminal and the
// TrustedApp must be re-created.
type state int

const (
	stateCreated state = iota
	stateKeysLoaded
	stateDeviceChallenged
	stateConfirmed
	stateFailed
)

// TrustedApp drives one MTPZ handshake against an open session.
type TrustedApp struct {
	session *mtp.Session
	keys    *keys

	state state

	hostNonce   []byte
	deviceNonce []byte
	sessionKey  []byte
}

// Probe reports whether the device's DeviceInfo advertises the MTPZ
// operation range. Callers should skip the handshake entirely, not treat
// absence as an error, when this returns false.
func Probe(ctx context.Context, session *mtp.Session) (bool, error) {
	info, err := session.GetDeviceInfo(ctx)
	if err != nil {
		return false, err
	}
	for code := uint16(ProbeOpCodeLo); code <= ProbeOpCodeHi; code++ {
		if !info.SupportsOperation(code) {
			return false, nil
		}
	}
	return true, nil
}

// New parses the .mtpz-data key file at path and binds it to session. The
// handshake itself does not start until Authenticate is called.
func New(session *mtp.Session, keyFilePath string) (*TrustedApp, error) {
	k, err := loadKeys(keyFilePath)
	if err != nil {
		return nil, err
	}
	return &TrustedApp{session: session, keys: k, state: stateKeysLoaded}, nil
}

// KeysLoaded reports whether the key file was successfully parsed.
func (a *TrustedApp) KeysLoaded() bool { return a.keys != nil }

// HasDeviceKey reports whether leg one has completed and a device RSA
// modulus is available.
func (a *TrustedApp) HasDeviceKey() bool { return a.keys != nil && a.keys.deviceModulus != nil }

// Authenticate runs the three-leg handshake. Once Confirmed, repeated calls
// are a no-op; once Failed, the TrustedApp is permanently invalid.
func (a *TrustedApp) Authenticate(ctx context.Context) error {
	switch a.state {
	case stateConfirmed:
		return nil
	case stateFailed:
		return HandshakeError{Leg: "authenticate", Reason: "trusted app is invalid after a prior failure"}
	}

	if err := a.leg1(ctx); err != nil {
		a.state = stateFailed
		return err
	}
	a.state = stateDeviceChallenged

	if err := a.leg2(ctx); err != nil {
		a.state = stateFailed
		return err
	}

	if err := a.leg3(ctx); err != nil {
		a.state = stateFailed
		return err
	}
	a.state = stateConfirmed
	return nil
}

// leg1 sends the host certificate blob and receives the device's
// certificate and challenge, which embeds the device's RSA modulus.
func (a *TrustedApp) leg1(ctx context.Context) error {
	payload := &bytes.Buffer{}
	payload.Write(certificateMsgTag[:])
	payload.Write(a.keys.hostCert)

	resp := &bytes.Buffer{}
	_, err := a.session.RunTransaction(ctx, OpLeg1, nil, payload, int64(payload.Len()), resp)
	if err != nil {
		return HandshakeError{Leg: "1", Reason: err.Error()}
	}
	body := resp.Bytes()
	if len(body) < RSAModulusSize+HashSize {
		return HandshakeError{Leg: "1", Reason: "device reply shorter than modulus+challenge"}
	}
	a.keys.deviceModulus = new(big.Int).SetBytes(body[:RSAModulusSize])
	a.deviceNonce = append([]byte{}, body[RSAModulusSize:RSAModulusSize+HashSize]...)
	return nil
}

// leg2 signs the SHA-1 of the device's challenge followed by a fresh host
// nonce, sends the nonce and that signature as the host response, and
// verifies the device's signed reply.
func (a *TrustedApp) leg2(ctx context.Context) error {
	a.hostNonce = make([]byte, HashSize)
	if _, err := rand.Read(a.hostNonce); err != nil {
		return HandshakeError{Leg: "2", Reason: err.Error()}
	}

	digest := sha1Sum(a.deviceNonce, a.hostNonce)
	signed := signBlock(a.keys, digest)

	payload := &bytes.Buffer{}
	payload.Write(a.hostNonce)
	payload.Write(signed)

	resp := &bytes.Buffer{}
	_, err := a.session.RunTransaction(ctx, OpLeg2, nil, payload, int64(payload.Len()), resp)
	if err != nil {
		return HandshakeError{Leg: "2", Reason: err.Error()}
	}
	if resp.Len() < RSAModulusSize {
		return HandshakeError{Leg: "2", Reason: "device signed reply shorter than one RSA block"}
	}
	expect := sha1Sum(a.hostNonce, a.deviceNonce)
	if !verifySignedBlock(a.keys.deviceModulus, resp.Bytes()[:RSAModulusSize], expect) {
		return HandshakeError{Leg: "2", Reason: VerificationFailed}
	}
	a.sessionKey = deriveSessionKey(a.hostNonce, a.deviceNonce)
	return nil
}

// leg3 sends a keyed confirmation; a non-OK response is a handshake
// failure, enforced by Session.RunTransaction surfacing ResponseError.
func (a *TrustedApp) leg3(ctx context.Context) error {
	confirm := sha1Sum(a.sessionKey, a.hostNonce, a.deviceNonce)
	payload := bytes.NewReader(confirm)
	_, err := a.session.RunTransaction(ctx, OpLeg3, nil, payload, int64(payload.Len()), nil)
	if err != nil {
		return HandshakeError{Leg: "3", Reason: err.Error()}
	}
	return nil
}

// EncryptWiFiPassword applies the device's public RSA operation to pw,
// returning exactly RSAModulusSize bytes. It requires a completed leg one
// (HasDeviceKey); it does not require the full handshake to be Confirmed.
func (a *TrustedApp) EncryptWiFiPassword(pw string) ([]byte, error) {
	if !a.HasDeviceKey() {
		return nil, fmt.Errorf("mtpz: no device key available, run Authenticate first")
	}
	if len(pw) > RSAModulusSize-1 {
		return nil, fmt.Errorf("mtpz: password too long to encrypt in one RSA block")
	}
	return encryptPublic(a.keys.deviceModulus, []byte(pw)), nil
}
