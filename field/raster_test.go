package field

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

var windRange = [2]float64{-128, 127}

func TestUniformDecodes(t *testing.T) {
	r := Uniform(8, 4, 10, -20, windRange, windRange)

	u, v, ok := r.Sample(0.5, 0.5)
	if !ok {
		t.Fatal("expected uniform raster to carry data")
	}
	if math.Abs(u-10) > 1e-4 || math.Abs(v+20) > 1e-4 {
		t.Errorf("expected (10, -20), got (%f, %f)", u, v)
	}
}

func TestDecodeIsLinear(t *testing.T) {
	r := New(1, 1, [2]float64{-100, 100}, [2]float64{0, 50})

	tests := []struct {
		c     [4]float32
		wantU float64
		wantV float64
	}{
		{[4]float32{0, 0, 0, 1}, -100, 0},
		{[4]float32{1, 1, 0, 1}, 100, 50},
		{[4]float32{0.5, 0.5, 0, 1}, 0, 25},
	}
	for _, tc := range tests {
		u, v := r.Values(tc.c)
		if math.Abs(u-tc.wantU) > 1e-6 || math.Abs(v-tc.wantV) > 1e-6 {
			t.Errorf("channels %v: expected (%f, %f), got (%f, %f)", tc.c, tc.wantU, tc.wantV, u, v)
		}
	}
}

func TestNodataByAlpha(t *testing.T) {
	r := Uniform(4, 4, 5, 5, windRange, windRange)
	// Punch a hole in the top-left texel
	r.Set(0, 0, [4]float32{0.5, 0.5, 0, 0})

	if _, _, ok := r.Sample(0.01, 0.01); ok {
		t.Error("expected nodata next to a transparent texel")
	}
	if _, _, ok := r.Sample(0.9, 0.9); !ok {
		t.Error("expected data far from the transparent texel")
	}
}

func TestRawRasterNaNIsNodata(t *testing.T) {
	r := New(2, 1, [2]float64{}, [2]float64{})
	r.Set(0, 0, [4]float32{3, 4, 0, 0})
	r.Set(1, 0, [4]float32{float32(math.NaN()), 0, 0, 0})
	r.Filter = FilterNearest

	u, v, ok := r.Sample(0.1, 0.5)
	if !ok || u != 3 || v != 4 {
		t.Errorf("expected raw (3, 4), got (%f, %f, %v)", u, v, ok)
	}
	if _, _, ok := r.Sample(0.9, 0.5); ok {
		t.Error("expected NaN texel to be nodata")
	}
}

func TestBilinearBlendsNeighbours(t *testing.T) {
	r := New(2, 1, windRange, windRange)
	r.Set(0, 0, [4]float32{0, 0, 0, 1})
	r.Set(1, 0, [4]float32{1, 1, 0, 1})

	// Exactly between the two texel centers
	c := r.SampleUV(0.5, 0.5)
	if math.Abs(float64(c[0])-0.5) > 1e-6 {
		t.Errorf("expected blended channel 0.5, got %f", c[0])
	}
	if c[3] != 1 {
		t.Errorf("expected alpha 1, got %f", c[3])
	}
}

func TestUVMapping(t *testing.T) {
	bounds := [4]float64{-180, -90, 180, 90}

	s, tt := UV(-180, 90, bounds)
	if s != 0 || tt != 0 {
		t.Errorf("expected north-west corner at (0,0), got (%f, %f)", s, tt)
	}
	s, tt = UV(180, -90, bounds)
	if s != 1 || tt != 1 {
		t.Errorf("expected south-east corner at (1,1), got (%f, %f)", s, tt)
	}
}

func TestValidate(t *testing.T) {
	var nilRaster *Raster
	if err := nilRaster.Validate(); err != ErrEmptyRaster {
		t.Errorf("expected ErrEmptyRaster, got %v", err)
	}
	r := New(2, 2, windRange, windRange)
	r.Data = r.Data[:3]
	if err := r.Validate(); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestLoadPNGDownsamples(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 50, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "wind.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := LoadPNG(path, windRange, windRange, 16)
	if err != nil {
		t.Fatalf("loading png: %v", err)
	}
	if r.Width != 16 || r.Height != 8 {
		t.Errorf("expected 16x8 after downsampling, got %dx%d", r.Width, r.Height)
	}
	c := r.Texel(3, 3)
	if math.Abs(float64(c[0])-200.0/255.0) > 0.01 || c[3] != 1 {
		t.Errorf("expected preserved channels, got %v", c)
	}
}

func TestLoadPNGMissing(t *testing.T) {
	if _, err := LoadPNG(filepath.Join(t.TempDir(), "nope.png"), windRange, windRange, 0); err == nil {
		t.Error("expected error for missing raster")
	}
}

func TestGenerateIsDeterministicAndValid(t *testing.T) {
	p := Params{Width: 36, Height: 18, Seed: 3, Scale: 2, Octaves: 2, Strength: 20, URange: windRange, VRange: windRange}
	a := Generate(p)
	b := Generate(p)

	if err := a.Validate(); err != nil {
		t.Fatalf("generated raster invalid: %v", err)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("expected deterministic output at %d", i)
		}
	}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			if !a.HasValues(a.Texel(x, y)) {
				t.Fatalf("expected every generated texel to carry data, (%d,%d) does not", x, y)
			}
		}
	}
}

func TestToImageRoundtrip(t *testing.T) {
	r := Uniform(4, 2, 0, 0, windRange, windRange)
	back := FromImage(r.ToImage(), windRange, windRange, 0)
	if back.Width != 4 || back.Height != 2 {
		t.Fatalf("expected 4x2, got %dx%d", back.Width, back.Height)
	}
	if !back.HasValues(back.Texel(1, 1)) {
		t.Error("expected opaque texels after roundtrip")
	}
}
