// Package printer prints admission labels on a Dymo LabelWriter.
package printer

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Config holds label printer configuration. Printing is disabled without a device.
type Config struct {
	Device       string `yaml:"device"`         // e.g. /dev/usb/lp0
	Font         string `yaml:"font"`           // TrueType font path
	Template     string `yaml:"template"`       // optional PNG drawn at the left edge
	BytesPerLine int    `yaml:"bytes_per_line"` // print head width / 8
	Lines        int    `yaml:"lines"`          // label length in dots
}

func (c Config) withDefaults() Config {
	if c.Font == "" {
		c.Font = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	}
	if c.BytesPerLine <= 0 {
		c.BytesPerLine = 38
	}
	if c.Lines <= 0 {
		c.Lines = 960
	}
	return c
}

// Label is the content of one admission label.
type Label struct {
	Event   string
	Ticket  string
	Holder  string
	Detail  string
	Station string
	Time    time.Time
}

// Printer renders and prints labels.
type Printer struct {
	cfg Config
}

// New returns a Printer, or nil when no device is configured.
func New(cfg Config) *Printer {
	if cfg.Device == "" {
		return nil
	}
	return &Printer{cfg: cfg.withDefaults()}
}

// Print renders l and sends it to the printer device.
func (p *Printer) Print(l Label) error {
	f, err := os.OpenFile(p.cfg.Device, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open printer: %w", err)
	}
	defer f.Close()

	if err := Encode(f, Render(p.cfg, l)); err != nil {
		return fmt.Errorf("print label: %w", err)
	}
	return nil
}

func loadFont(dc *gg.Context, path string, size float64) {
	if err := dc.LoadFontFace(path, size); err != nil {
		log.Printf("Label font %s: %v", path, err)
	}
}

// Render draws the label. The label is drawn rotated: its width runs along
// the feed direction and its height across the print head.
func Render(cfg Config, l Label) image.Image {
	cfg = cfg.withDefaults()
	width := cfg.Lines
	height := cfg.BytesPerLine * 8

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	offset := 0.0
	if cfg.Template != "" {
		if im, err := gg.LoadPNG(cfg.Template); err == nil {
			// Scale the artwork to the label height, keeping its aspect.
			b := im.Bounds()
			w := b.Dx() * height / max(b.Dy(), 1)
			dst := dc.Image().(*image.RGBA)
			draw.ApproxBiLinear.Scale(dst, image.Rect(0, 0, w, height), im, b, draw.Over, nil)
			offset = float64(w) / 2
		} else {
			log.Printf("Label template %s: %v", cfg.Template, err)
		}
	}

	cx := float64(width)/2 + offset
	name := l.Holder
	if name == "" {
		name = l.Ticket
	}

	loadFont(dc, cfg.Font, 72)
	dc.DrawStringAnchored("ADMIT ONE", cx, float64(height)*0.22, 0.5, 0.5)
	loadFont(dc, cfg.Font, 48)
	dc.DrawStringAnchored(name, cx, float64(height)*0.45, 0.5, 0.5)
	loadFont(dc, cfg.Font, 28)
	if l.Event != "" {
		dc.DrawStringAnchored(l.Event, cx, float64(height)*0.62, 0.5, 0.5)
	}
	if l.Detail != "" {
		dc.DrawStringAnchored(l.Detail, cx, float64(height)*0.74, 0.5, 0.5)
	}
	loadFont(dc, cfg.Font, 20)
	stamp := l.Time.Format("Mon, 02-Jan-2006 15:04")
	if l.Station != "" {
		stamp += " @ " + l.Station
	}
	dc.DrawStringAnchored(stamp, cx, float64(height)*0.88, 0.5, 0.5)

	dc.SetLineWidth(2)
	dc.DrawRectangle(10, 10, float64(width-20), float64(height-20))
	dc.Stroke()

	return dc.Image()
}

// Encode writes img in the LabelWriter raster protocol: a bytes-per-line
// header, the label length, one 0x16-prefixed column per dot line and a form feed.
// The image height must be a multiple of 8.
func Encode(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Dy()%8 != 0 {
		return fmt.Errorf("label height %d is not a multiple of 8", b.Dy())
	}

	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	bw := bufio.NewWriter(w)
	lines := b.Dx()
	bw.Write([]byte{27, 0x44, byte(b.Dy() / 8)})
	bw.Write([]byte{27, 0x4c, byte((lines >> 8) & 0xff), byte(lines & 0xff)})

	for x := b.Min.X; x < b.Max.X; x++ {
		bw.WriteByte(0x16)
		for y := b.Max.Y - 8; y >= b.Min.Y; y -= 8 {
			var data byte
			for i := 0; i < 8; i++ {
				if gray.GrayAt(x, y+i).Y <= 0x80 {
					data |= 1 << i
				}
			}
			bw.WriteByte(data)
		}
	}
	bw.Write([]byte{27, 'E'})
	return bw.Flush()
}
