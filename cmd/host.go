package cmd

import (
	"errors"
	"fmt"

	"github.com/sergev/wdfdc/adapter"
	"github.com/sergev/wdfdc/fdc"
	"github.com/sergev/wdfdc/geometry"
)

// host drives a board through its ports, the way software on the host
// computer does.
type host struct {
	board adapter.HostAdapter
	ports adapter.PortMap
	chip  fdc.Chip
}

func newHost(board adapter.HostAdapter) *host {
	return &host{
		board: board,
		ports: board.PortMap(),
		chip:  board.Controller().Chip(),
	}
}

func (h *host) out(reg fdc.Register, value byte) {
	h.board.Out(h.ports.FDC+int(reg), value)
}

func (h *host) in(reg fdc.Register) byte {
	return h.board.In(h.ports.FDC + int(reg))
}

func (h *host) drq() bool {
	_, drq := h.board.Signals()
	return drq
}

// selectDrive writes the drive select latch.
func (h *host) selectDrive(slot, side int, density geometry.Density) {
	latch := byte(adapter.SelectDrive0 << slot)
	if side != 0 {
		latch |= adapter.SelectSide
	}
	if density == geometry.DoubleDensity {
		latch |= adapter.SelectMFM
	}
	h.board.Out(h.ports.Latch, latch)
}

// sideFlags returns the Type II command bits addressing a side.
func (h *host) sideFlags(side int) byte {
	switch h.chip {
	case fdc.WD1795, fdc.WD1797:
		return byte(side&1) << 1
	case fdc.WD1791, fdc.WD1793:
		return 0x02 | byte(side&1)<<3
	}
	return 0
}

// statusError converts error bits of a Type II or III status into an error.
func statusError(status byte) error {
	var errs []error
	if status&fdc.StatusNotReady != 0 {
		errs = append(errs, errors.New("drive not ready"))
	}
	if status&fdc.StatusWriteProtect != 0 {
		errs = append(errs, errors.New("write protected"))
	}
	if status&fdc.StatusWriteFault != 0 {
		errs = append(errs, errors.New("write fault"))
	}
	if status&fdc.StatusRecordNotFound != 0 {
		errs = append(errs, errors.New("record not found"))
	}
	if status&fdc.StatusCRCError != 0 {
		errs = append(errs, errors.New("CRC error"))
	}
	if status&fdc.StatusLostData != 0 {
		errs = append(errs, errors.New("lost data"))
	}
	return errors.Join(errs...)
}

// seek moves the head of the selected drive.
func (h *host) seek(track int) error {
	h.out(fdc.RegData, byte(track))
	h.out(fdc.RegCommand, 0x18) // seek, load head
	if st := h.in(fdc.RegStatus); st&fdc.StatusSeekError != 0 {
		return fmt.Errorf("seek to track %d failed: status %02X", track, st)
	}
	return nil
}

// prepare selects the drive and side and seeks to the track.
func (h *host) prepare(slot int, g *geometry.Geometry, track, side int) error {
	h.selectDrive(slot, side, g.Format(track, side).Density)
	return h.seek(track)
}

// readSector reads one sector through a Type II Read command.
func (h *host) readSector(slot int, g *geometry.Geometry, track, side, sector int) ([]byte, error) {
	if err := h.prepare(slot, g, track, side); err != nil {
		return nil, err
	}
	h.out(fdc.RegSector, byte(sector))
	h.out(fdc.RegCommand, 0x80|h.sideFlags(side))

	var data []byte
	for h.drq() {
		data = append(data, h.in(fdc.RegData))
	}
	if err := statusError(h.in(fdc.RegStatus)); err != nil {
		return nil, fmt.Errorf("sector %d.%d.%d: %w", track, side, sector, err)
	}
	return data, nil
}

// writeSector writes one sector through a Type II Write command.
func (h *host) writeSector(slot int, g *geometry.Geometry, track, side, sector int, data []byte) error {
	if err := h.prepare(slot, g, track, side); err != nil {
		return err
	}
	h.out(fdc.RegSector, byte(sector))
	h.out(fdc.RegCommand, 0xA0|h.sideFlags(side))

	n := 0
	for h.drq() {
		var b byte
		if n < len(data) {
			b = data[n]
		}
		h.out(fdc.RegData, b)
		n++
	}
	if err := statusError(h.in(fdc.RegStatus)); err != nil {
		return fmt.Errorf("sector %d.%d.%d: %w", track, side, sector, err)
	}
	return nil
}

// writeTrack sends a raw track stream through a Write Track command.
func (h *host) writeTrack(slot int, g *geometry.Geometry, track, side int, stream []byte) error {
	if err := h.prepare(slot, g, track, side); err != nil {
		return err
	}
	cmd := byte(0xF0)
	if h.chip == fdc.WD1795 || h.chip == fdc.WD1797 {
		cmd |= byte(side&1) << 1
	}
	h.out(fdc.RegCommand, cmd)

	for _, b := range stream {
		if !h.drq() {
			break
		}
		h.out(fdc.RegData, b)
	}
	st := h.in(fdc.RegStatus)
	if st&fdc.StatusBusy != 0 {
		h.out(fdc.RegCommand, 0xD0)
		return fmt.Errorf("track %d.%d: stream ended before the last sector", track, side)
	}
	if err := statusError(st); err != nil {
		return fmt.Errorf("track %d.%d: %w", track, side, err)
	}
	return nil
}
