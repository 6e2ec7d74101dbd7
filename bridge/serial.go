package bridge

import (
	"fmt"
	"strconv"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate of the serial transport. USB CDC ports ignore it.
const DefaultBaudRate = 115200

// OpenSerial opens a serial port for Serve or NewClient.
func OpenSerial(name string, baudRate int) (serial.Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// FindPorts lists serial ports. With a non-zero vendorID only USB ports of
// that vendor, and product when productID is non-zero, are returned.
func FindPorts(vendorID, productID uint16) ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return filterPorts(ports, vendorID, productID), nil
}

func filterPorts(ports []*enumerator.PortDetails, vendorID, productID uint16) []*enumerator.PortDetails {
	if vendorID == 0 {
		return ports
	}
	var found []*enumerator.PortDetails
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		portVID, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		portPID, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}
		if uint16(portVID) != vendorID {
			continue
		}
		if productID != 0 && uint16(portPID) != productID {
			continue
		}
		found = append(found, port)
	}
	return found
}
