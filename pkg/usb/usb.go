// Package usb provides the gousb-backed transport for HDS-series
// instruments. The protocol engine itself only sees the device.Transport
// interface; everything USB-specific lives here.
package usb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"
	"github.com/rs/zerolog/log"
)

// The vendor/product identity every HDS-series combo reports.
const (
	VendorID  gousb.ID = 0x5345
	ProductID gousb.ID = 0x1234
)

// Both bulk pipes live on endpoint 1 of the default interface.
const endpointNumber = 1

var (
	// ErrNoDevice means no USB device with the expected identity is
	// attached. Reported once; connection errors are never retried here.
	ErrNoDevice = errors.New("usb: no matching device found")
	// ErrBulkInNotFound means the device lacks the expected IN endpoint.
	ErrBulkInNotFound = errors.New("usb: bulk IN endpoint not found")
	// ErrBulkOutNotFound means the device lacks the expected OUT endpoint.
	ErrBulkOutNotFound = errors.New("usb: bulk OUT endpoint not found")
)

// IdentityError reports a device whose descriptor does not match the
// expected vendor/product identity.
type IdentityError struct {
	Vendor  gousb.ID
	Product gousb.ID
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("usb: wrong device identity %s:%s", e.Vendor, e.Product)
}

// Device is an open instrument connection implementing device.Transport.
// It is not safe for concurrent use; the run loop owns it exclusively.
type Device struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	done    func()
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
}

// Open claims the first attached instrument matching vid:pid. Pass the
// package constants unless the device enumerates under a nonstandard
// identity.
func Open(vid, pid gousb.ID) (*Device, error) {
	ctx := gousb.NewContext()

	d, err := open(ctx, vid, pid)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	d.ctx = ctx
	return d, nil
}

func open(ctx *gousb.Context, vid, pid gousb.ID) (*Device, error) {
	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		return nil, fmt.Errorf("usb: open device: %w", err)
	}
	if dev == nil {
		return nil, ErrNoDevice
	}

	if dev.Desc.Vendor != vid || dev.Desc.Product != pid {
		err := &IdentityError{Vendor: dev.Desc.Vendor, Product: dev.Desc.Product}
		dev.Close()
		return nil, err
	}

	// The kernel usbtmc driver claims these devices on Linux.
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		return nil, fmt.Errorf("usb: auto detach: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("usb: claim default interface: %w", err)
	}

	in, err := intf.InEndpoint(endpointNumber)
	if err != nil {
		done()
		dev.Close()
		return nil, fmt.Errorf("%w: %v", ErrBulkInNotFound, err)
	}
	out, err := intf.OutEndpoint(endpointNumber)
	if err != nil {
		done()
		dev.Close()
		return nil, fmt.Errorf("%w: %v", ErrBulkOutNotFound, err)
	}

	log.Info().
		Stringer("vendor", dev.Desc.Vendor).
		Stringer("product", dev.Desc.Product).
		Msg("instrument opened")

	return &Device{dev: dev, done: done, in: in, out: out}, nil
}

// Send writes one command buffer to the bulk OUT pipe.
func (d *Device) Send(ctx context.Context, p []byte) error {
	n, err := d.out.WriteContext(ctx, p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("usb: short write: %d of %d bytes", n, len(p))
	}
	return nil
}

// Recv reads one response buffer from the bulk IN pipe.
func (d *Device) Recv(ctx context.Context, buf []byte) (int, error) {
	return d.in.ReadContext(ctx, buf)
}

// Close releases the interface, device, and USB context.
func (d *Device) Close() error {
	if d.done != nil {
		d.done()
	}
	err := d.dev.Close()
	if d.ctx != nil {
		if cerr := d.ctx.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
