// Package usbms implements transport.Device over github.com/google/gousb:
// it enumerates attached USB devices, picks the first one exposing the
// three-endpoint (bulk out, bulk in, interrupt in) shape MTP/PTP devices
// advertise, and claims it.
package usbms

import (
	"context"
	"fmt"

	"github.com/google/gousb"

	"github.com/gomtp/mtpcore/mtp/transport"
)

// Device wraps an opened, interface-claimed gousb device as a
// transport.Device.
type Device struct {
	usbCtx *gousb.Context
	usbDev *gousb.Device
	config *gousb.Config
	iface  *gousb.Interface

	outEP *gousb.OutEndpoint
	inEP  *gousb.InEndpoint
	evEP  *gousb.InEndpoint
}

// Discover enumerates attached USB devices and opens the first one whose
// descriptor has an alternate setting with exactly the bulk-out/bulk-in/
// interrupt-in triple this client needs. pattern, if non-empty, is matched
// against "vendor:product" in lowercase hex (e.g. "045e:0724"); empty
// matches any device. It returns the opened Device and the endpoint
// addresses a Transport should be built with.
func Discover(ctx context.Context, pattern string) (*Device, transport.Endpoints, error) {
	usbCtx := gousb.NewContext()

	devs, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if pattern == "" {
			return true
		}
		return fmt.Sprintf("%04x:%04x", desc.Vendor, desc.Product) == pattern
	})
	if err != nil {
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: enumerate devices: %w", err)
	}

	var picked *gousb.Device
	var cfgNum, ifaceNum, altNum int
	var ep transport.Endpoints
	for _, d := range devs {
		if picked != nil {
			d.Close()
			continue
		}
		cn, in, an, epp, ok := findMTPInterface(d.Desc)
		if !ok {
			d.Close()
			continue
		}
		picked, cfgNum, ifaceNum, altNum, ep = d, cn, in, an, epp
	}
	if picked == nil {
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: no MTP-shaped device found")
	}

	cfg, err := picked.Config(cfgNum)
	if err != nil {
		picked.Close()
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: open config %d: %w", cfgNum, err)
	}
	iface, err := cfg.Interface(ifaceNum, altNum)
	if err != nil {
		cfg.Close()
		picked.Close()
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: claim interface %d.%d: %w", ifaceNum, altNum, err)
	}

	outEP, err := iface.OutEndpoint(int(ep.Send))
	if err != nil {
		iface.Close()
		cfg.Close()
		picked.Close()
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: open send endpoint: %w", err)
	}
	inEP, err := iface.InEndpoint(int(ep.Fetch))
	if err != nil {
		iface.Close()
		cfg.Close()
		picked.Close()
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: open fetch endpoint: %w", err)
	}
	evEP, err := iface.InEndpoint(int(ep.Event))
	if err != nil {
		iface.Close()
		cfg.Close()
		picked.Close()
		usbCtx.Close()
		return nil, transport.Endpoints{}, fmt.Errorf("usbms: open event endpoint: %w", err)
	}

	return &Device{
		usbCtx: usbCtx,
		usbDev: picked,
		config: cfg,
		iface:  iface,
		outEP:  outEP,
		inEP:   inEP,
		evEP:   evEP,
	}, ep, nil
}

// findMTPInterface scans a device descriptor's configurations for an
// alternate setting with exactly one bulk-out, one bulk-in and one
// interrupt-in endpoint, the same shape the original driver's FindDevices
// looked for (three endpoints, classified by direction and transfer type
// rather than by interface class, since some devices -- notably Windows
// Phone handsets -- don't advertise a still-image/PTP class on the MTP
// interface at all).
func findMTPInterface(desc *gousb.DeviceDesc) (cfgNum, ifaceNum, altNum int, ep transport.Endpoints, ok bool) {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				var send, fetch, event gousb.EndpointAddress
				for _, e := range alt.Endpoints {
					switch {
					case e.Direction == gousb.EndpointDirectionOut && e.TransferType == gousb.TransferTypeBulk:
						send = e.Address
					case e.Direction == gousb.EndpointDirectionIn && e.TransferType == gousb.TransferTypeBulk:
						fetch = e.Address
					case e.Direction == gousb.EndpointDirectionIn && e.TransferType == gousb.TransferTypeInterrupt:
						event = e.Address
					}
				}
				if send != 0 && fetch != 0 && event != 0 {
					return cfg.Number, intf.Number, alt.Alternate,
						transport.Endpoints{Send: byte(send), Fetch: byte(fetch), Event: byte(event)}, true
				}
			}
		}
	}
	return 0, 0, 0, transport.Endpoints{}, false
}

// Close releases the claimed interface, configuration, device handle and
// USB context, in that order.
func (d *Device) Close() error {
	d.iface.Close()
	d.config.Close()
	err := d.usbDev.Close()
	d.usbCtx.Close()
	return err
}

func (d *Device) ClaimInterface(ctx context.Context, iface int) error {
	// Discover already opened the configuration and claimed the interface;
	// nothing further to do per-session.
	return nil
}

func (d *Device) ReadBulk(ctx context.Context, endpoint byte, buf []byte) (int, error) {
	return d.inEP.Read(buf)
}

func (d *Device) WriteBulk(ctx context.Context, endpoint byte, data []byte) (int, error) {
	return d.outEP.Write(data)
}

func (d *Device) ReadInterrupt(ctx context.Context, endpoint byte, buf []byte) (int, error) {
	return d.evEP.Read(buf)
}

func (d *Device) ControlTransfer(ctx context.Context, requestType, request byte, value, index uint16, data []byte) (int, error) {
	return d.usbDev.Control(requestType, request, value, index, data)
}

func (d *Device) ClearHalt(endpoint byte) error {
	return d.usbDev.ClearHalt(endpoint)
}

func (d *Device) GetStringDescriptor(index uint8, langID uint16) (string, error) {
	return d.usbDev.GetStringDescriptor(int(index))
}
