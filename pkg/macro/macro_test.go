package macro

import (
	"testing"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

func ptr(v float64) *float64 { return &v }

func TestFootprint(t *testing.T) {
	m := Macro{Name: "A", W: 10, H: 20, HaloX: 1, HaloY: 2, ChannelX: 4, ChannelY: 6}

	w, h := m.FootprintSize()
	if w != 16 || h != 30 {
		t.Fatalf("FootprintSize() = %v x %v, want 16 x 30", w, h)
	}

	m.SetFootprintOrigin(100, 200)
	if m.LX != 103 || m.LY != 207 {
		t.Errorf("SetFootprintOrigin: LX,LY = %v,%v, want 103,207", m.LX, m.LY)
	}

	fp := m.Footprint()
	if fp.LX != 100 || fp.LY != 200 || fp.Width() != 16 || fp.Height() != 30 {
		t.Errorf("Footprint() = %+v", fp)
	}
	if !fp.Contains(m.HaloRect()) {
		t.Errorf("footprint %+v does not contain halo rect %+v", fp, m.HaloRect())
	}
	if c := m.Center(); c.X != 108 || c.Y != 217 {
		t.Errorf("Center() = %+v", c)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Macro
		wantErr bool
	}{
		{"ok", Macro{Name: "A", W: 1, H: 1}, false},
		{"zero size", Macro{Name: "A"}, false},
		{"negative width", Macro{Name: "A", W: -1}, true},
		{"negative halo", Macro{Name: "A", HaloY: -0.5}, true},
		{"negative channel", Macro{Name: "A", ChannelX: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := Spacing{HaloX: 1, HaloY: 1, ChannelX: 2, ChannelY: 2}

	tests := []struct {
		name         string
		local        LocalInfo
		want         Spacing
		wantRejected int
	}{
		{"empty", LocalInfo{}, defaults, 0},
		{"halo only", LocalInfo{HaloX: ptr(5)}, Spacing{HaloX: 5, HaloY: 1, ChannelX: 2, ChannelY: 2}, 0},
		{"zero override", LocalInfo{ChannelY: ptr(0)}, Spacing{HaloX: 1, HaloY: 1, ChannelX: 2, ChannelY: 0}, 0},
		{"negative kept default", LocalInfo{HaloY: ptr(-3), ChannelX: ptr(7)}, Spacing{HaloX: 1, HaloY: 1, ChannelX: 7, ChannelY: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rejected := tt.local.Merge(defaults)
			if got != tt.want {
				t.Errorf("Merge() = %+v, want %+v", got, tt.want)
			}
			if len(rejected) != tt.wantRejected {
				t.Errorf("rejected = %v, want %d fields", rejected, tt.wantRejected)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	d := netlist.NewBuilder("top", geom.Rect{UX: 100, UY: 100}).
		Cell("u0", "I", "Z").
		Macro("ram0", 10, 20, "I", "O").
		Macro("ram1", 30, 40, "I", "O").
		MustBuild()
	d.Instance("ram1").X = 12

	locals := map[string]LocalInfo{
		"ram1":  {HaloX: ptr(3), HaloY: ptr(-1)},
		"ghost": {HaloX: ptr(1)},
	}
	macros, idx, warnings := Build(d, Spacing{HaloX: 1, HaloY: 1}, locals)

	if len(macros) != 2 {
		t.Fatalf("len(macros) = %d, want 2", len(macros))
	}
	if idx[0] != 1 || idx[1] != 2 {
		t.Errorf("instance index = %v, want [1 2]", idx)
	}
	if macros[0].Name != "ram0" || macros[0].HaloX != 1 {
		t.Errorf("ram0 = %+v", macros[0])
	}
	if m := macros[1]; m.HaloX != 3 || m.HaloY != 1 || m.W != 30 || m.LX != 12 {
		t.Errorf("ram1 = %+v", m)
	}

	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	for _, w := range warnings {
		if w.Code != errors.ErrCodeConfig {
			t.Errorf("warning code = %s, want CONFIG_ERROR", w.Code)
		}
	}
	if warnings[0].Subject != "ram1" || warnings[1].Subject != "ghost" {
		t.Errorf("warning subjects = %q, %q", warnings[0].Subject, warnings[1].Subject)
	}
}

func TestTotalFootprintArea(t *testing.T) {
	ms := []Macro{
		{W: 10, H: 10},
		{W: 10, H: 10, HaloX: 1, HaloY: 1},
	}
	if got := TotalFootprintArea(ms); got != 100+144 {
		t.Errorf("TotalFootprintArea() = %v, want 244", got)
	}
}
