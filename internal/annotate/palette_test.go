package annotate

import (
	"image/color"
	"testing"
)

func TestParsePalette_Default(t *testing.T) {
	p, err := ParsePalette(DefaultPalette)
	if err != nil {
		t.Fatalf("ParsePalette failed: %v", err)
	}
	if len(p) != 6 {
		t.Fatalf("len: got %d, want 6", len(p))
	}

	want := []color.NRGBA{
		{R: 255, G: 0, B: 0, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 0, G: 128, B: 0, A: 255},
		{R: 0, G: 191, B: 191, A: 255},
		{R: 191, G: 0, B: 191, A: 255},
		{R: 191, G: 191, B: 0, A: 255},
	}
	for i, w := range want {
		if got := p[i].NRGBA(); got != w {
			t.Errorf("p[%d] (%s): got %v, want %v", i, p[i].Name, got, w)
		}
	}
}

func TestParsePalette_Formats(t *testing.T) {
	tests := []struct {
		name    string
		want    color.NRGBA
		wantErr bool
	}{
		{"red", color.NRGBA{R: 255, A: 255}, false},
		{"  Orange ", color.NRGBA{R: 255, G: 165, A: 255}, false},
		{"#00FF00", color.NRGBA{G: 255, A: 255}, false},
		{"00ff00", color.NRGBA{G: 255, A: 255}, false},
		{"#FF000080", color.NRGBA{R: 255, A: 128}, false},
		{"k", color.NRGBA{A: 255}, false},
		{"", color.NRGBA{}, true},
		{"chartreuse-ish", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePalette([]string{tt.name})
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := p[0].NRGBA(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePalette_Empty(t *testing.T) {
	if _, err := ParsePalette(nil); err == nil {
		t.Error("ParsePalette(nil) should fail")
	}
}

func TestMustParsePalette_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParsePalette should panic on a bad color")
		}
	}()
	MustParsePalette([]string{"nope"})
}

func TestPalette_AtCycles(t *testing.T) {
	p := MustParsePalette([]string{"r", "g", "b"})

	for i := 0; i < 10; i++ {
		if got, want := p.At(i).Name, p[i%3].Name; got != want {
			t.Errorf("At(%d): got %s, want %s", i, got, want)
		}
	}
	if p.At(-1).Name != "b" {
		t.Errorf("At(-1): got %s, want b", p.At(-1).Name)
	}
}

func TestSwatch_WithAlpha(t *testing.T) {
	sw := MustParsePalette([]string{"r"})[0]
	if got := sw.WithAlpha(0.5).A; got != 128 {
		t.Errorf("alpha 0.5: got %d, want 128", got)
	}
	if got := sw.WithAlpha(2).A; got != 255 {
		t.Errorf("alpha clamped: got %d, want 255", got)
	}

	translucent := MustParsePalette([]string{"#FF000080"})[0]
	if got := translucent.WithAlpha(0.5).A; got != 64 {
		t.Errorf("entry alpha combined: got %d, want 64", got)
	}
}

func TestSwatch_Foreground(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}

	tests := []struct {
		name string
		want color.NRGBA
	}{
		{"r", white},
		{"b", white},
		{"g", white},
		{"k", white},
		{"w", black},
		{"yellow", black},
		{"cyan", black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := MustParsePalette([]string{tt.name})[0]
			if got := sw.Foreground(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHexString(t *testing.T) {
	if got := hexString(color.NRGBA{R: 255, G: 16, B: 1, A: 255}); got != "#FF1001" {
		t.Errorf("opaque: got %s", got)
	}
	if got := hexString(color.NRGBA{R: 255, A: 128}); got != "#FF000080" {
		t.Errorf("translucent: got %s", got)
	}
}
