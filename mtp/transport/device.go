// Package transport implements the PTP/MTP container framer: it turns a
// bulk IN/OUT endpoint pair plus an interrupt IN endpoint into
// Command/Data/Response/Event container reads and writes. It does not know
// how to enumerate or open a USB device; that is supplied by a Device
// implementation from outside this module.
package transport

import "context"

// Device is the external USB collaborator this package depends on. A real
// implementation claims an interface, owns its endpoint addresses, and
// performs the actual bulk/control/interrupt I/O; this package only calls
// it with caller-supplied context timeouts for cancellation.
type Device interface {
	ClaimInterface(ctx context.Context, iface int) error
	ReadBulk(ctx context.Context, endpoint byte, buf []byte) (int, error)
	WriteBulk(ctx context.Context, endpoint byte, data []byte) (int, error)
	ReadInterrupt(ctx context.Context, endpoint byte, buf []byte) (int, error)
	ControlTransfer(ctx context.Context, requestType, request byte, value, index uint16, data []byte) (int, error)
	ClearHalt(endpoint byte) error
	GetStringDescriptor(index uint8, langID uint16) (string, error)
}

// Endpoints names the three pipes a Transport needs: bulk OUT (send), bulk
// IN (fetch), and interrupt IN (event). Selection of the owning interface
// (USB class 06, or the MTP OS-descriptor variant) is the Device's concern.
type Endpoints struct {
	Send  byte
	Fetch byte
	Event byte
}

// classSpecificCancelRequest is the PTP class request (0x64) used to cancel
// an in-flight transaction.
const classSpecificCancelRequest = 0x64

// classSpecificGetDeviceStatus polls device status after a cancel request.
const classSpecificGetDeviceStatus = 0x67
