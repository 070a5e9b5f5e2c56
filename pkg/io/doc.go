// Package io reads and writes designs and placement results as JSON.
//
// # Design Format
//
//	{
//	  "name": "soc",
//	  "core": {"lx": 0, "ly": 0, "ux": 1000, "uy": 800},
//	  "instances": [
//	    {"name": "sram0", "master": "SRAM64K", "macro": true,
//	     "width": 120, "height": 80, "x": 0, "y": 0,
//	     "pins": [{"name": "Q", "dir": "output"}, {"name": "A", "dir": "input"}]},
//	    {"name": "r0", "master": "DFF", "sequential": true, "timing": true,
//	     "pins": [{"name": "D", "dir": "input", "data": true},
//	              {"name": "CK", "dir": "input", "clock": true},
//	              {"name": "Q", "dir": "output"}]}
//	  ],
//	  "ports": [{"name": "clk", "dir": "input", "x": 0, "y": 400, "placed": true}],
//	  "nets": [{"name": "n1", "driver": "sram0/Q", "loads": ["r0/D"]}]
//	}
//
// Net terminals are "instance/pin" references or bare port names. An
// instance without "timing" is assumed to carry timing data; "timing":
// false makes any placement run fail with MISSING_TIMING_DATA.
//
// # Files as Source and Sink
//
// [DesignFile] lets a JSON file act as both ends of a placement run:
//
//	f := io.DesignFile{Path: "soc.json", Out: "soc.placed.json"}
//	res, err := p.PlaceAndWrite(ctx, f, f)
//
// All exports replace their target atomically.
//
// # Results
//
// [WriteResult] and [ReadResult] round-trip [placer.Result], including the
// slicing tree, so results can be rendered or inspected later without
// re-running placement.
package io
