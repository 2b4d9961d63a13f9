package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedCoordinate is returned when a DMS string or hemisphere reference
// cannot be parsed.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// Axis selects which hemisphere letters apply to a value.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// Ref is a hemisphere reference letter.
type Ref string

const (
	North Ref = "N"
	South Ref = "S"
	East  Ref = "E"
	West  Ref = "W"
)

// Negative reports whether the reference denotes the negative hemisphere.
func (r Ref) Negative() bool {
	return r == South || r == West
}

// Opposite returns the other hemisphere on the same axis.
func (r Ref) Opposite() Ref {
	switch r {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return r
}

// ParseRef validates a hemisphere reference letter.
func ParseRef(s string) (Ref, error) {
	switch r := Ref(s); r {
	case North, South, East, West:
		return r, nil
	}
	return "", fmt.Errorf("%w: invalid reference %q", ErrMalformedCoordinate, s)
}

// RefFor returns the hemisphere of value on the given axis. Zero belongs to the
// positive hemisphere (N or E).
func RefFor(value float64, axis Axis) Ref {
	negative := value < 0
	if axis == Latitude {
		if negative {
			return South
		}
		return North
	}
	if negative {
		return West
	}
	return East
}

// DMS is one coordinate axis split into truncated integer degrees, minutes and
// seconds plus its hemisphere.
type DMS struct {
	Degrees int
	Minutes int
	Seconds int
	Ref     Ref
}

// String renders the EXIF rational triple, e.g. "48/1,51/1,23/1".
func (d DMS) String() string {
	return fmt.Sprintf("%d/1,%d/1,%d/1", d.Degrees, d.Minutes, d.Seconds)
}

// Decimal converts d back to signed decimal degrees.
func (d DMS) Decimal() float64 {
	v := float64(d.Degrees) + float64(d.Minutes)/60 + float64(d.Seconds)/3600
	if d.Ref.Negative() {
		v = -v
	}
	return v
}

// DecimalToDMS decomposes value into truncated degrees, minutes and seconds.
// Truncation loses less than one arc-second.
func DecimalToDMS(value float64, axis Axis) DMS {
	total := totalArcSeconds(value)
	return DMS{
		Degrees: total / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
		Ref:     RefFor(value, axis),
	}
}

// arcSecondEpsilon absorbs float residue, so 89.315 (exactly 89°18'54") does
// not truncate to 53 seconds.
const arcSecondEpsilon = 1e-9

// totalArcSeconds returns |value| in whole arc-seconds, truncated.
func totalArcSeconds(value float64) int {
	v := math.Abs(value)*3600 + arcSecondEpsilon
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v))
}

// Encode returns the DMS strings and references for both axes of p.
func Encode(p Point) (lat DMS, lon DMS) {
	return DecimalToDMS(p.Lat, Latitude), DecimalToDMS(p.Lon, Longitude)
}

// DMSToDecimal parses an EXIF rational triple and applies the hemisphere
// reference. Denominators are honoured, so "2964/100" is 29.64.
func DMSToDecimal(dms string, ref string) (float64, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return 0, err
	}

	parts := strings.Split(dms, ",")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: expected 3 components in %q, got %d", ErrMalformedCoordinate, dms, len(parts))
	}

	var values [3]float64
	for i, part := range parts {
		v, err := parseRational(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("%w: component %d of %q: %v", ErrMalformedCoordinate, i+1, dms, err)
		}
		values[i] = v
	}

	decimal := values[0] + values[1]/60 + values[2]/3600
	if r.Negative() {
		decimal = -decimal
	}
	return decimal, nil
}

// parseRational parses "num/den" into num/den. EXIF rationals are unsigned,
// so negative parts are rejected.
func parseRational(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, fmt.Errorf("missing '/' in %q", s)
	}

	n, err := parseNonNegative(num)
	if err != nil {
		return 0, err
	}
	d, err := parseNonNegative(den)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", s)
	}
	return n / d, nil
}

func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("out of range number %q", s)
	}
	return v, nil
}
