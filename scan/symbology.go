package scan

import (
	"sort"
	"strings"
)

// Symbology identifies a barcode type.
type Symbology int

const (
	Unknown Symbology = iota
	QR
	Aztec
	EAN13
	EAN8
	PDF417
	UPCE
	DataMatrix
	Code39
	Code93
	ITF14
	Codabar
	Code128
	UPCA
)

var symbologyNames = map[Symbology]string{
	Unknown:    "unknown",
	QR:         "qr",
	Aztec:      "aztec",
	EAN13:      "ean13",
	EAN8:       "ean8",
	PDF417:     "pdf417",
	UPCE:       "upc_e",
	DataMatrix: "datamatrix",
	Code39:     "code39",
	Code93:     "code93",
	ITF14:      "itf14",
	Codabar:    "codabar",
	Code128:    "code128",
	UPCA:       "upc_a",
}

func (s Symbology) String() string {
	if name, ok := symbologyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSymbology converts a config or event name to a Symbology.
// Dashes, underscores and case are ignored ("EAN-13", "ean_13" and "ean13" all match).
func ParseSymbology(name string) (Symbology, bool) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	switch key {
	case "qr", "qrcode":
		return QR, true
	case "aztec":
		return Aztec, true
	case "ean13":
		return EAN13, true
	case "ean8":
		return EAN8, true
	case "pdf417":
		return PDF417, true
	case "upce":
		return UPCE, true
	case "datamatrix":
		return DataMatrix, true
	case "code39":
		return Code39, true
	case "code93":
		return Code93, true
	case "itf14", "itf":
		return ITF14, true
	case "codabar":
		return Codabar, true
	case "code128":
		return Code128, true
	case "upca":
		return UPCA, true
	}
	return Unknown, false
}

// Set is a set of recognized symbologies.
type Set map[Symbology]bool

// DefaultSet returns every symbology a ticket can be printed with.
func DefaultSet() Set {
	return NewSet(QR, Aztec, EAN13, EAN8, PDF417, UPCE, DataMatrix,
		Code39, Code93, ITF14, Codabar, Code128, UPCA)
}

// NewSet builds a Set from the given symbologies.
func NewSet(syms ...Symbology) Set {
	s := make(Set, len(syms))
	for _, sym := range syms {
		s[sym] = true
	}
	return s
}

// ParseSet builds a Set from config names. An empty list yields DefaultSet.
func ParseSet(names []string) (Set, error) {
	if len(names) == 0 {
		return DefaultSet(), nil
	}
	s := make(Set, len(names))
	for _, name := range names {
		sym, ok := ParseSymbology(name)
		if !ok {
			return nil, &UnknownSymbologyError{Name: name}
		}
		s[sym] = true
	}
	return s, nil
}

// Contains reports whether sym is in the set.
func (s Set) Contains(sym Symbology) bool {
	return s[sym]
}

// Names returns the sorted symbology names in the set.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for sym := range s {
		names = append(names, sym.String())
	}
	sort.Strings(names)
	return names
}

// UnknownSymbologyError is returned for unrecognized symbology names.
type UnknownSymbologyError struct {
	Name string
}

func (e *UnknownSymbologyError) Error() string {
	return "unknown symbology: " + e.Name
}

// aimCodes maps the AIM symbology identifier code character (the one after ']')
// to a Symbology. Modifier characters are handled in ParseAIM.
var aimCodes = map[byte]Symbology{
	'Q': QR,
	'z': Aztec,
	'L': PDF417,
	'd': DataMatrix,
	'A': Code39,
	'G': Code93,
	'F': Codabar,
	'C': Code128,
}

// ParseAIM strips an AIM symbology identifier ("]Q1", "]E0", ...) from a scanned line.
// Lines without an identifier are returned unchanged with Unknown.
func ParseAIM(line string) (Symbology, string) {
	if len(line) < 3 || line[0] != ']' {
		return Unknown, line
	}
	code, mod := line[1], line[2]
	data := line[3:]

	switch code {
	case 'E':
		// EAN/UPC family: modifier 4 is EAN-8, otherwise length decides.
		if mod == '4' {
			return EAN8, data
		}
		switch len(data) {
		case 8:
			return UPCE, data
		case 12:
			return UPCA, data
		case 13:
			if strings.HasPrefix(data, "0") {
				return UPCA, data[1:]
			}
			return EAN13, data
		}
		return EAN13, data
	case 'I':
		if len(data) == 14 {
			return ITF14, data
		}
		return Unknown, data
	}

	if sym, ok := aimCodes[code]; ok {
		return sym, data
	}
	return Unknown, line
}
