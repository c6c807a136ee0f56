package gradient

import (
	"encoding/json"
	"image/color"
	"testing"
)

func TestNewRejectsBadStops(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for empty stop list")
	}
	if _, err := New([]Stop{{Color: color.RGBA{A: 255}, Offset: 1.5}}); err == nil {
		t.Error("expected error for offset above 1")
	}
	if _, err := New([]Stop{{Color: color.RGBA{A: 255}, Offset: -0.1}}); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestNewSortsStops(t *testing.T) {
	g, err := New([]Stop{
		{Color: color.RGBA{R: 255, A: 255}, Offset: 1},
		{Color: color.RGBA{G: 255, A: 255}, Offset: 0.2},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stops := g.Stops()
	if stops[0].Offset != 0.2 || stops[1].Offset != 1 {
		t.Errorf("stops not sorted by offset: %+v", stops)
	}
}

func TestLUTShape(t *testing.T) {
	t.Parallel()

	lut := Default.LUT(1)
	if len(lut) != LUTSize {
		t.Fatalf("LUT length = %d, want %d", len(lut), LUTSize)
	}

	// The first stop sits at 0.2, so the table ramps up from a fully
	// transparent first color.
	if lut[0].A != 0 {
		t.Errorf("lut[0].A = %d, want 0", lut[0].A)
	}
	first := int(0.2 * LUTSize)
	want := color.RGBA{R: 102, G: 225, B: 0, A: 255}
	if lut[first] != want {
		t.Errorf("lut[%d] = %v, want %v", first, lut[first], want)
	}
	for i := 1; i < first; i++ {
		if lut[i].A < lut[i-1].A {
			t.Fatalf("alpha ramp not monotonic at %d: %d < %d", i, lut[i].A, lut[i-1].A)
		}
	}

	// The tail of the table approaches the last stop color.
	last := lut[LUTSize-1]
	if last.R < 254 || last.G > 1 || last.B != 0 {
		t.Errorf("lut[%d] = %v, want near red", LUTSize-1, last)
	}
}

func TestLUTOpacity(t *testing.T) {
	opaque := Default.LUT(1)
	faded := Default.LUT(0.5)
	idx := int(0.2 * LUTSize)
	want := uint8(float64(opaque[idx].A) * 0.5)
	if faded[idx].A != want {
		t.Errorf("faded alpha = %d, want %d", faded[idx].A, want)
	}
	if faded[idx].R != opaque[idx].R || faded[idx].G != opaque[idx].G {
		t.Error("opacity must only touch the alpha channel")
	}
}

func TestLUTSingleStopAtZero(t *testing.T) {
	g, err := New([]Stop{{Color: color.RGBA{R: 10, G: 20, B: 30, A: 255}, Offset: 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lut := g.LUT(1)
	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	for _, i := range []int{0, LUTSize / 2, LUTSize - 1} {
		if lut[i] != want {
			t.Errorf("lut[%d] = %v, want %v", i, lut[i], want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#FF0000", want: color.RGBA{R: 255, A: 255}},
		{in: "79BC6A", want: color.RGBA{R: 0x79, G: 0xBC, B: 0x6A, A: 255}},
		{in: "#11223344", want: color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{in: "#12345", wantErr: true},
		{in: "#GGHHII", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHex(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex(color.RGBA{R: 0xE5, A: 255}); got != "#E50000" {
		t.Errorf("FormatHex = %q, want #E50000", got)
	}
	if got := FormatHex(color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}); got != "#11223344" {
		t.Errorf("FormatHex = %q, want #11223344", got)
	}
}

func TestStopJSON(t *testing.T) {
	s := Stop{Color: color.RGBA{R: 0xEE, G: 0xC2, B: 0x0B, A: 255}, Offset: 0.5}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"color":"#EEC20B","offset":0.5}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Stop
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != s {
		t.Errorf("round trip = %+v, want %+v", back, s)
	}

	if err := json.Unmarshal([]byte(`{"color":"red","offset":0}`), &back); err == nil {
		t.Error("expected error for non-hex color")
	}
}

func TestGradientJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Fire)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Gradient
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, want := back.Stops(), Fire.Stops()
	if len(got) != len(want) {
		t.Fatalf("stop count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stop %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	var bad Gradient
	if err := json.Unmarshal([]byte(`[]`), &bad); err == nil {
		t.Error("expected error for empty stop array")
	}
}
