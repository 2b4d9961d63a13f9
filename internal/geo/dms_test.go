package geo

import (
	"errors"
	"math"
	"testing"
)

const oneArcSecond = 1.0 / 3600

func TestDecimalToDMS_Paris(t *testing.T) {
	lat, lon := Encode(Point{Lat: 48.8566, Lon: 2.3522})

	if lat.String() != "48/1,51/1,23/1" {
		t.Errorf("expected latitude '48/1,51/1,23/1', got '%s'", lat.String())
	}
	if lat.Ref != North {
		t.Errorf("expected latitude ref N, got %s", lat.Ref)
	}
	if lon.String() != "2/1,21/1,7/1" {
		t.Errorf("expected longitude '2/1,21/1,7/1', got '%s'", lon.String())
	}
	if lon.Ref != East {
		t.Errorf("expected longitude ref E, got %s", lon.Ref)
	}
}

func TestDMSToDecimal_ParisRoundTrip(t *testing.T) {
	latitude, err := DMSToDecimal("48/1,51/1,23/1", "N")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	longitude, err := DMSToDecimal("2/1,21/1,7/1", "E")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(latitude-48.856388) > 1e-6 {
		t.Errorf("expected latitude ~48.8563, got %f", latitude)
	}
	if math.Abs(longitude-2.351944) > 1e-6 {
		t.Errorf("expected longitude ~2.3519, got %f", longitude)
	}
	if math.Abs(latitude-48.8566) >= oneArcSecond {
		t.Errorf("latitude error %g exceeds one arc-second", math.Abs(latitude-48.8566))
	}
	if math.Abs(longitude-2.3522) >= oneArcSecond {
		t.Errorf("longitude error %g exceeds one arc-second", math.Abs(longitude-2.3522))
	}
}

func TestRoundTrip_BoundedError(t *testing.T) {
	check := func(v float64, axis Axis) {
		t.Helper()
		dms := DecimalToDMS(v, axis)
		got, err := DMSToDecimal(dms.String(), string(dms.Ref))
		if err != nil {
			t.Fatalf("decode %v: %v", v, err)
		}
		if diff := math.Abs(got - v); diff >= oneArcSecond {
			t.Errorf("value %v: round trip %v differs by %g", v, got, diff)
		}
	}

	for v := -90.0; v <= 90.0; v += 0.0137 {
		check(v, Latitude)
	}
	for v := -180.0; v <= 180.0; v += 0.0291 {
		check(v, Longitude)
	}
	for _, v := range []float64{0, -0.0, 90, -90, 180, -180, 10.5, 45.999999999, 0.000001, -0.000001} {
		check(v, Latitude)
		check(v, Longitude)
	}
}

func TestDecimalToDMS_WholeArcSeconds(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{89.315, "89/1,18/1,54/1"},
		{-89.315, "89/1,18/1,54/1"},
		{-88.63, "88/1,37/1,48/1"},
		{-87.6025, "87/1,36/1,9/1"},
		{12.015, "12/1,0/1,54/1"},
		{0.015, "0/1,0/1,54/1"},
		{45.515, "45/1,30/1,54/1"},
	}

	for _, tt := range tests {
		d := DecimalToDMS(tt.value, Latitude)
		if d.String() != tt.want {
			t.Errorf("DecimalToDMS(%v) = %s, want %s", tt.value, d, tt.want)
		}
		got, err := DMSToDecimal(d.String(), string(d.Ref))
		if err != nil {
			t.Fatalf("decode %v: %v", tt.value, err)
		}
		if diff := math.Abs(got - tt.value); diff >= oneArcSecond {
			t.Errorf("value %v: round trip %v differs by %g", tt.value, got, diff)
		}
	}
}

func TestDecimalToDMS_ComponentsInRange(t *testing.T) {
	for v := -180.0; v <= 180.0; v += 0.00731 {
		d := DecimalToDMS(v, Longitude)
		if d.Minutes < 0 || d.Minutes > 59 {
			t.Fatalf("value %v: minutes %d out of range", v, d.Minutes)
		}
		if d.Seconds < 0 || d.Seconds > 59 {
			t.Fatalf("value %v: seconds %d out of range", v, d.Seconds)
		}
	}
}

func TestRefFor_HemisphereSign(t *testing.T) {
	for _, x := range []float64{0.5, 1, 48.8566, 89.9, 179.99} {
		if got, want := DecimalToDMS(-x, Latitude).Ref, DecimalToDMS(x, Latitude).Ref.Opposite(); got != want {
			t.Errorf("latitude %v: expected %s, got %s", -x, want, got)
		}
		if got, want := DecimalToDMS(-x, Longitude).Ref, DecimalToDMS(x, Longitude).Ref.Opposite(); got != want {
			t.Errorf("longitude %v: expected %s, got %s", -x, want, got)
		}
	}

	if ref := DecimalToDMS(0.0, Latitude).Ref; ref != North {
		t.Errorf("expected zero latitude to be N, got %s", ref)
	}
	if ref := DecimalToDMS(0.0, Longitude).Ref; ref != East {
		t.Errorf("expected zero longitude to be E, got %s", ref)
	}
}

func TestDMSToDecimal_NegativeHemispheres(t *testing.T) {
	south, err := DMSToDecimal("33/1,52/1,4/1", "S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if south >= 0 {
		t.Errorf("expected negative latitude for S, got %f", south)
	}

	west, err := DMSToDecimal("73/1,59/1,8/1", "W")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if west >= 0 {
		t.Errorf("expected negative longitude for W, got %f", west)
	}
}

func TestDMSToDecimal_HonoursDenominator(t *testing.T) {
	got, err := DMSToDecimal("48/1, 51/1, 2964/100", "N")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 48 + 51.0/60 + 29.64/3600
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestDMSToDecimal_Malformed(t *testing.T) {
	tests := []struct {
		name string
		dms  string
		ref  string
	}{
		{"garbage", "abc", "N"},
		{"bad ref", "1/1,2/1,3/1", "Q"},
		{"lowercase ref", "1/1,2/1,3/1", "n"},
		{"empty ref", "1/1,2/1,3/1", ""},
		{"two components", "1/1,2/1", "N"},
		{"four components", "1/1,2/1,3/1,4/1", "N"},
		{"missing slash", "1,2/1,3/1", "E"},
		{"non numeric", "1/1,x/1,3/1", "E"},
		{"zero denominator", "1/0,2/1,3/1", "W"},
		{"negative numerator", "-1/1,2/1,3/1", "S"},
		{"empty", "", "N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DMSToDecimal(tt.dms, tt.ref)
			if !errors.Is(err, ErrMalformedCoordinate) {
				t.Errorf("expected ErrMalformedCoordinate, got %v", err)
			}
		})
	}
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		point Point
		want  bool
	}{
		{Point{0, 0}, true},
		{Point{90, 180}, true},
		{Point{-90, -180}, true},
		{Point{90.0001, 0}, false},
		{Point{0, -180.5}, false},
		{Point{math.NaN(), 0}, false},
	}

	for _, tt := range tests {
		if got := tt.point.Valid(); got != tt.want {
			t.Errorf("Point%v.Valid() = %v, want %v", tt.point, got, tt.want)
		}
	}
}

func TestDMSDecimal(t *testing.T) {
	d := DMS{Degrees: 2, Minutes: 21, Seconds: 7, Ref: West}
	if got := d.Decimal(); math.Abs(got+2.351944) > 1e-6 {
		t.Errorf("expected -2.351944, got %f", got)
	}
}
