//go:build screen

package video

import (
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"sync"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Scan view geometry, as fractions of the screen.
const (
	viewTop    = 0.20
	viewBottom = 0.80
	viewMargin = 0.10
	lineHeight = 6
)

// Display renders station states on a 16bpp framebuffer.
type Display struct {
	mu              sync.Mutex
	cfg             Config
	dc              *gg.Context
	pixBuffer       []byte
	backBuffer      []byte
	rgbaImage       *image.RGBA
	width           int
	height          int
	lineLengthBytes int
	initialized     bool
	scanning        bool
	lastLineY       int
}

// New opens the framebuffer display.
func New(cfg Config) (*Display, error) {
	d := &Display{cfg: cfg.withDefaults(), lastLineY: -1}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Display) init() error {
	fbLowLevel, err := framebuffer.OpenFrameBuffer(d.cfg.Device, os.O_RDWR)
	if err != nil {
		return fmt.Errorf("open framebuffer: %w", err)
	}

	varInfo, err := fbLowLevel.VarScreenInfo()
	if err != nil {
		return fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fbLowLevel.FixScreenInfo()
	if err != nil {
		return fmt.Errorf("get fixed screen info: %w", err)
	}

	d.pixBuffer, err = fbLowLevel.Pixels()
	if err != nil {
		return fmt.Errorf("get pixel data: %w", err)
	}

	d.width = int(varInfo.XRes)
	d.height = int(varInfo.YRes)
	d.lineLengthBytes = int(fixedInfo.LineLength)
	d.backBuffer = make([]byte, d.height*d.lineLengthBytes)

	log.Printf("Video: framebuffer %dx%d, %d bpp, stride %d bytes",
		d.width, d.height, varInfo.BitsPerPixel, d.lineLengthBytes)

	d.rgbaImage = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	d.dc = gg.NewContextForRGBA(d.rgbaImage)
	d.initialized = true

	d.clear()
	return nil
}

func (d *Display) clear() {
	for i := range d.pixBuffer {
		d.pixBuffer[i] = 0
	}
}

// flushRect converts a region of the RGBA image to RGB565 and copies it to the framebuffer.
func (d *Display) flushRect(x0, y0, w, h int) {
	x1, y1 := min(x0+w, d.width), min(y0+h, d.height)
	x0, y0 = max(x0, 0), max(y0, 0)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, _ := d.rgbaImage.At(x, y).RGBA()
			r5 := uint16(r >> (16 - 5))
			g6 := uint16(g >> (16 - 6))
			b5 := uint16(b >> (16 - 5))
			pixel16 := (r5 << 11) | (g6 << 5) | b5
			fbIdx := (y * d.lineLengthBytes) + (x * 2)
			if fbIdx+1 < len(d.backBuffer) {
				binary.LittleEndian.PutUint16(d.backBuffer[fbIdx:], pixel16)
			}
		}
		start := y*d.lineLengthBytes + x0*2
		end := y*d.lineLengthBytes + x1*2
		if end <= len(d.pixBuffer) && start < end {
			copy(d.pixBuffer[start:end], d.backBuffer[start:end])
		}
	}
}

func (d *Display) update() {
	d.flushRect(0, 0, d.width, d.height)
}

func (d *Display) setFontSize(size int) {
	if err := d.dc.LoadFontFace(d.cfg.Font, float64(size)); err != nil {
		log.Printf("Video: failed to load font: %v", err)
	}
}

func (d *Display) drawCentered(text string, y float64, r, g, b float64) {
	d.dc.SetRGB(r, g, b)
	d.dc.DrawStringAnchored(text, float64(d.width/2), y, 0.5, 0.5)
}

func (d *Display) fill(r, g, b float64) {
	d.dc.SetRGB(r, g, b)
	d.dc.DrawRectangle(0, 0, float64(d.width), float64(d.height))
	d.dc.Fill()
}

// headline draws a title with an optional name and detail line below it.
func (d *Display) headline(title, name, detail string, fg, accent [3]float64) {
	y := float64(d.height/2) - 40
	d.setFontSize(64)
	d.drawCentered(title, y, fg[0], fg[1], fg[2])
	if name != "" {
		d.setFontSize(48)
		d.drawCentered(name, y+70, fg[0], fg[1], fg[2])
	}
	if detail != "" {
		d.setFontSize(32)
		d.drawCentered(detail, y+130, accent[0], accent[1], accent[2])
	}
}

var (
	white  = [3]float64{1, 1, 1}
	black  = [3]float64{0, 0, 0}
	yellow = [3]float64{1, 1, 0}
)

// Idle shows the ready screen.
func (d *Display) Idle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	d.fill(0, 0.3, 0)
	d.headline("Ready", "Press to scan", "", white, white)
	d.update()
}

// Scanning shows the scan view frame. The scan line is drawn by ScanLine.
func (d *Display) Scanning() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = true
	d.lastLineY = -1
	d.drawScanView()
	d.update()
}

func (d *Display) viewRect() (x, y, w, h float64) {
	x = float64(d.width) * viewMargin
	y = float64(d.height) * viewTop
	w = float64(d.width) * (1 - 2*viewMargin)
	h = float64(d.height) * (viewBottom - viewTop)
	return
}

func (d *Display) drawScanView() {
	d.fill(0, 0, 0.2)
	d.setFontSize(36)
	d.drawCentered("Hold ticket to scanner", float64(d.height)*viewTop/2, 1, 1, 1)

	x, y, w, h := d.viewRect()
	d.dc.SetRGB(0.8, 0.8, 0.8)
	d.dc.SetLineWidth(4)
	d.dc.DrawRectangle(x, y, w, h)
	d.dc.Stroke()
}

// ScanLine moves the scan line to pos (0 = top of the scan view, 1 = bottom).
// Only the rows touched by the old and new line are flushed.
func (d *Display) ScanLine(pos float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized || !d.scanning {
		return
	}

	x, y, w, h := d.viewRect()
	pos = math.Max(0, math.Min(1, pos))
	lineY := int(y + pos*(h-lineHeight))

	if d.lastLineY >= 0 {
		d.dc.SetRGB(0, 0, 0.2)
		d.dc.DrawRectangle(x+4, float64(d.lastLineY), w-8, lineHeight)
		d.dc.Fill()
		d.flushRect(int(x), d.lastLineY, int(w), lineHeight)
	}

	d.dc.SetRGB(0, 1, 0.25)
	d.dc.DrawRectangle(x+4, float64(lineY), w-8, lineHeight)
	d.dc.Fill()
	d.flushRect(int(x), lineY, int(w), lineHeight)
	d.lastLineY = lineY
}

// Validating shows the loading screen.
func (d *Display) Validating() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	d.fill(0, 0.4, 0.6)
	d.headline("Checking ticket", "Please wait...", "", white, white)
	d.update()
}

// Accepted shows the admission confirmation.
func (d *Display) Accepted(ticket, holder, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	d.fill(0, 0.7, 0)
	d.headline("Welcome!", displayName(ticket, holder), detail, white, yellow)
	d.update()
}

// Rejected shows why a ticket was refused.
func (d *Display) Rejected(ticket, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	if reason == "" {
		reason = "Ticket could not be checked"
	}
	d.fill(0.7, 0, 0)
	d.headline("Not admitted", reason, ticket, white, yellow)
	d.update()
}

// PermissionDenied shows the instructions in place of the scan view.
func (d *Display) PermissionDenied() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	d.fill(0.7, 0.7, 0)
	d.headline("Scanner unavailable", "Check scanner access", "Grant device permission, then restart", black, [3]float64{0.7, 0, 0})
	d.update()
}

// ConnectionLost shows the broker connection lost screen.
func (d *Display) ConnectionLost() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	d.fill(0.5, 0.3, 0)
	d.headline("Connection Lost", "", "", white, white)
	d.update()
}

// Shutdown blanks the screen.
func (d *Display) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.scanning = false
	d.clear()
}

// Release blanks the screen and stops drawing.
func (d *Display) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	d.initialized = false
	return nil
}

// Width returns the display width.
func (d *Display) Width() int {
	return d.width
}

// Height returns the display height.
func (d *Display) Height() int {
	return d.height
}
