package eventpipe

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"tixscan/scan"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{line: "toggle", want: Command{Kind: KindToggle}},
		{line: "TOGGLE", want: Command{Kind: KindToggle}},
		{line: "permission", want: Command{Kind: KindPermission}},
		{line: "scan qr TIX-0042", want: Command{Kind: KindScan, Decode: scan.Decode{Symbology: scan.QR, Data: "TIX-0042"}}},
		{line: "scan code128 A B", want: Command{Kind: KindScan, Decode: scan.Decode{Symbology: scan.Code128, Data: "A B"}}},
		{line: "scan ]Q1TIX-7", want: Command{Kind: KindScan, Decode: scan.Decode{Symbology: scan.QR, Data: "TIX-7"}}},
		{line: "scan", wantErr: true},
		{line: "scan TIX-7", wantErr: true},
		{line: "scan morse ...", wantErr: true},
		{line: "rfid 1234", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseLine(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %+v", tt.line, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.line, err)
		}
		if got != tt.want {
			t.Fatalf("%q: got %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestConsumeDispatches(t *testing.T) {
	var toggles, perms int
	var scans []scan.Decode
	ep := &EventPipe{
		handler: Handler{
			OnToggle:     func() { toggles++ },
			OnPermission: func() { perms++ },
			OnScan:       func(d scan.Decode) { scans = append(scans, d) },
		},
		ctx: context.Background(),
	}

	input := "# bench script\ntoggle\n\nbogus\nscan ean13 4006381333931\npermission\n"
	ep.consume(bufio.NewScanner(strings.NewReader(input)))

	if toggles != 1 || perms != 1 {
		t.Fatalf("toggles=%d perms=%d", toggles, perms)
	}
	if len(scans) != 1 || scans[0].Symbology != scan.EAN13 || scans[0].Data != "4006381333931" {
		t.Fatalf("scans %+v", scans)
	}
}

func TestNilHandlersSkipped(t *testing.T) {
	Handler{}.dispatch(Command{Kind: KindScan})
	Handler{}.dispatch(Command{Kind: KindToggle})
}

func TestNewDisabled(t *testing.T) {
	ep, err := New(Config{}, Handler{})
	if err != nil || ep != nil {
		t.Fatalf("expected disabled pipe, got %v %v", ep, err)
	}
}
