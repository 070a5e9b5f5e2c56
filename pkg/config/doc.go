// Package config reads placement settings from TOML files.
//
// The global file sets defaults for a whole run:
//
//	[placement]
//	halo_x = 2.0
//	halo_y = 2.0
//	channel_x = 4.0
//	channel_y = 4.0
//	fence = [0.0, 0.0, 1000.0, 800.0]
//	candidates = 8
//	tie_break = "vertical"
//
// The local file overrides spacing for individual macros:
//
//	[macros."cpu/l2_sram"]
//	halo_x = 6.0
//
// A bad global file is an error. A bad local file only produces a
// CONFIG_ERROR warning; placement then uses the global spacing for every
// macro.
package config
