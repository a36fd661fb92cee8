package mtp

import "fmt"

// ResponseError is a non-OK PTP/MTP response: the device answered the
// transaction but with a failure code.
type ResponseError struct {
	Code  uint16
	Param []uint32
}

func (e ResponseError) Error() string {
	name, ok := RCNames[e.Code]
	if !ok {
		name = fmt.Sprintf("RetCode %#04x", e.Code)
	}
	if len(e.Param) == 0 {
		return fmt.Sprintf("mtp: %s", name)
	}
	return fmt.Sprintf("mtp: %s %v", name, e.Param)
}

// Is lets errors.Is(err, ResponseError{Code: RC_InvalidStorageID}) match on
// code alone, ignoring Param.
func (e ResponseError) Is(target error) bool {
	t, ok := target.(ResponseError)
	return ok && t.Code == e.Code
}
