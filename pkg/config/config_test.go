package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/placer"
)

func TestParseGlobal(t *testing.T) {
	g, err := ParseGlobal(`
[placement]
halo_x = 2.0
channel_y = 4
fence = [10, 10, 90, 80]
candidates = 6
seed = 42
tie_break = "vertical"
site_x = 0.5
`)
	if err != nil {
		t.Fatalf("ParseGlobal() error: %v", err)
	}

	opts := placer.Options{Candidates: 2}
	opts.Spacing.HaloY = 1
	if err := g.Apply(&opts); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if opts.Spacing.HaloX != 2 || opts.Spacing.HaloY != 1 || opts.Spacing.ChannelY != 4 {
		t.Errorf("Spacing = %+v", opts.Spacing)
	}
	if want := (geom.Rect{LX: 10, LY: 10, UX: 90, UY: 80}); opts.Fence != want {
		t.Errorf("Fence = %+v, want %+v", opts.Fence, want)
	}
	if opts.Candidates != 6 || opts.Seed != 42 || opts.SiteX != 0.5 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.TieBreak != adjacency.PreferVertical {
		t.Errorf("TieBreak = %v", opts.TieBreak)
	}
}

func TestParseGlobalErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", "[placement\nhalo_x = 1"},
		{"unknown key", "[placement]\nhallo_x = 1"},
		{"short fence", "[placement]\nfence = [0, 0, 10]"},
		{"wrong type", "[placement]\ncandidates = \"many\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGlobal(tt.doc)
			if !errors.Is(err, errors.ErrCodeConfig) {
				t.Errorf("ParseGlobal() error = %v, want CONFIG_ERROR", err)
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	for _, doc := range []string{
		"[placement]\ntie_break = \"diagonal\"",
		"[placement]\nseed = -1",
	} {
		g, err := ParseGlobal(doc)
		if err != nil {
			t.Fatal(err)
		}
		var opts placer.Options
		if err := g.Apply(&opts); !errors.Is(err, errors.ErrCodeConfig) {
			t.Errorf("Apply(%q) error = %v, want CONFIG_ERROR", doc, err)
		}
	}
}

func TestLoadGlobalMissing(t *testing.T) {
	_, err := LoadGlobal(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadGlobal() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestParseLocal(t *testing.T) {
	locals, warnings := ParseLocal(`
[macros."top/sram0"]
halo_x = 5
channel_y = 1.5

[macros.rom]
halo_y = 3
colour = "red"
`, "local.toml")

	if got := Names(locals); len(got) != 2 || got[0] != "rom" || got[1] != "top/sram0" {
		t.Fatalf("Names() = %v", got)
	}
	sram := locals["top/sram0"]
	if sram.HaloX == nil || *sram.HaloX != 5 || sram.HaloY != nil || *sram.ChannelY != 1.5 {
		t.Errorf("top/sram0 = %+v", sram)
	}
	if len(warnings) != 1 || warnings[0].Code != errors.ErrCodeConfig {
		t.Errorf("warnings = %v, want one unknown-key warning", warnings)
	}
}

func TestLoadLocalFallback(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[macros.a\nhalo_x = "), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{bad, filepath.Join(dir, "missing.toml")} {
		locals, warnings := LoadLocal(path)
		if locals != nil {
			t.Errorf("LoadLocal(%s) = %v, want no overrides", path, locals)
		}
		if len(warnings) != 1 || warnings[0].Code != errors.ErrCodeConfig || warnings[0].Subject != path {
			t.Errorf("LoadLocal(%s) warnings = %v", path, warnings)
		}
	}
}
