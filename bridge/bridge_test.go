package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/sergev/wdfdc/adapter"
	"github.com/sergev/wdfdc/fdc"
	"github.com/sergev/wdfdc/image"
	"github.com/spf13/afero"
	"go.bug.st/serial/enumerator"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBoard(t *testing.T) adapter.HostAdapter {
	t.Helper()
	b, err := adapter.New("latch", adapter.Options{Name: "bench", Chip: fdc.WD1793, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("adapter.New() error: %v", err)
	}
	l, _ := image.LayoutByName("ibm3740")
	g, err := l.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	if _, err := image.Create(afero.NewMemMapFs(), "a.img", g, 0xE5); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := b.Insert(0, fdc.NewDrive(g, false)); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	return b
}

// startServer runs Serve on one end of a pipe and returns a client on the other.
func startServer(t *testing.T, ctx context.Context, board adapter.HostAdapter) (*Client, net.Conn, <-chan error) {
	t.Helper()
	host, device := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- NewServer(board, quietLogger()).Serve(ctx, device)
	}()
	return NewClient(host), host, done
}

func TestHandle(t *testing.T) {
	b := newBoard(t)
	s := NewServer(b, quietLogger())

	if resp := s.Handle(OpWrite|4, adapter.SelectDrive0); resp != [2]byte{adapter.SelectDrive0, 0} {
		t.Errorf("latch write response = % X", resp)
	}
	if resp := s.Handle(OpWrite|byte(fdc.RegCommand), 0x00); resp[1] != SignalINTRQ {
		t.Errorf("restore response = % X, expected INTRQ", resp)
	}
	resp := s.Handle(byte(fdc.RegStatus), 0)
	if resp[0]&fdc.StatusTrack0 == 0 || resp[1] != 0 {
		t.Errorf("status response = % X", resp)
	}
	if resp := s.Handle(9, 0); resp != [2]byte{0xFF, SignalBadPort} {
		t.Errorf("bad port response = % X", resp)
	}
}

func TestServeReadSector(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, host, done := startServer(t, ctx, newBoard(t))

	if err := client.Out(4, adapter.SelectDrive0); err != nil {
		t.Fatalf("Out() error: %v", err)
	}
	if err := client.Out(int(fdc.RegSector), 1); err != nil {
		t.Fatalf("Out() error: %v", err)
	}
	if err := client.Out(int(fdc.RegCommand), 0x80); err != nil {
		t.Fatalf("Out() error: %v", err)
	}
	var data []byte
	for {
		if _, drq := client.Signals(); !drq {
			break
		}
		b, err := client.In(int(fdc.RegData))
		if err != nil {
			t.Fatalf("In() error: %v", err)
		}
		data = append(data, b)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte{0xE5}, 128)) {
		t.Errorf("read %d bytes, expected 128 of E5", len(data))
	}
	if intrq, _ := client.Signals(); !intrq {
		t.Errorf("INTRQ not reported after the last byte")
	}

	if _, err := client.In(100); !errors.Is(err, ErrBadPort) {
		t.Errorf("In(100) error = %v, expected ErrBadPort", err)
	}

	host.Close()
	if err := <-done; err != nil {
		t.Errorf("Serve() error: %v", err)
	}
}

func TestServeCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, host, done := startServer(t, ctx, newBoard(t))
	defer host.Close()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, expected context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve() did not stop on cancel")
	}
}

func TestFilterPorts(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "1209", PID: "0001"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "1209", PID: "4d69"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "zz", PID: "6001"},
	}
	testCases := []struct {
		vid, pid uint16
		want     []string
	}{
		{0, 0, []string{"/dev/ttyS0", "/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyUSB0", "/dev/ttyUSB1"}},
		{0x1209, 0, []string{"/dev/ttyACM0", "/dev/ttyACM1"}},
		{0x1209, 0x0001, []string{"/dev/ttyACM0"}},
		{0x0403, 0x6001, []string{"/dev/ttyUSB0"}},
		{0x03eb, 0, nil},
	}
	for _, tc := range testCases {
		found := filterPorts(ports, tc.vid, tc.pid)
		var names []string
		for _, p := range found {
			names = append(names, p.Name)
		}
		if len(names) != len(tc.want) {
			t.Errorf("filterPorts(%04X, %04X) = %v, expected %v", tc.vid, tc.pid, names, tc.want)
			continue
		}
		for i := range names {
			if names[i] != tc.want[i] {
				t.Errorf("filterPorts(%04X, %04X) = %v, expected %v", tc.vid, tc.pid, names, tc.want)
				break
			}
		}
	}
}
