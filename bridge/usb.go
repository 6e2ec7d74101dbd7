package bridge

import (
	"fmt"

	"github.com/google/gousb"
)

// USB identity and endpoints of a bridge device.
const (
	VendorID  = 0x1209 // pid.codes open hardware
	ProductID = 0x0001 // pid.codes test PID
	Interface = 0

	EndpointBulkOut = 0x01
	EndpointBulkIn  = 0x81
)

// USBConn is a stream over a pair of bulk endpoints.
type USBConn struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	done    func()
	bulkOut *gousb.OutEndpoint
	bulkIn  *gousb.InEndpoint
}

// OpenUSB opens the first device with the given VID/PID and claims the
// bridge interface.
func OpenUSB(vendorID, productID uint16) (*USBConn, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vendorID && uint16(desc.Product) == productID
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		ctx.Close()
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("USB bridge not found (VID=0x%04X PID=0x%04X)", vendorID, productID)
	}

	// Use the first matching device
	dev := devs[0]
	for i := 1; i < len(devs); i++ {
		devs[i].Close()
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to enable kernel driver auto-detach: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim interface %d: %w", Interface, err)
	}

	bulkOut, err := intf.OutEndpoint(EndpointBulkOut)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk out endpoint: %w", err)
	}
	bulkIn, err := intf.InEndpoint(EndpointBulkIn)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk in endpoint: %w", err)
	}

	return &USBConn{
		ctx:     ctx,
		dev:     dev,
		done:    done,
		bulkOut: bulkOut,
		bulkIn:  bulkIn,
	}, nil
}

func (u *USBConn) Read(p []byte) (int, error) {
	return u.bulkIn.Read(p)
}

func (u *USBConn) Write(p []byte) (int, error) {
	return u.bulkOut.Write(p)
}

// Close releases the interface, the device and the USB context.
func (u *USBConn) Close() error {
	u.done()
	err := u.dev.Close()
	if cerr := u.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}
