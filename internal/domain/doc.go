// Package domain models HydroGeoSphere (HGS) observation-well output and the
// transformations that turn it into analysis-ready time series.
//
// # Data Source
//
// HGS writes one observation-well file per well. Each output time step is
// a Tecplot-style zone holding one row per model layer ("block" or
// "sheet"), bottom layer first:
//
//	TITLE = "Observation well: Baildon059"
//	VARIABLES = "H","S","Z","X","Y"
//	zone t="   86400.0000"
//	  361.2   0.98   355.0   512300.0   5599100.0    <- layer 1 (bottom)
//	  361.4   1.00   358.0   512300.0   5599100.0    <- layer 2
//	zone t="  172800.0000"
//	  ...
//
// Line classes are recognized by prefix (after trimming, case-insensitive):
//
//	"variable..."  header; names separated by commas, quotes or spaces.
//	"zone..."      one per time step; the last token is seconds since the
//	               simulation epoch.
//	digit          a data row, split on whitespace.
//
// The number of layers is the length of the first run of data rows. Every
// data row in the file belongs to RawBlockTable.Rows, so row r of step s
// for layer b (1-based) sits at index (b-1) + s*BlockCount.
//
// # Column Conventions
//
// Reshape names layered columns "<variable><layer>" (H5, Z6) and records
// the variable and layer on the Column itself. Roles:
//
//	H   hydraulic head        RoleHead
//	Z   elevation             RoleElevation
//	*   any other variable    RoleVariable (saturation S, coordinates, ...)
//
// DeriveDepth adds depth_H<i> = Z<surface> - H<i>, where the surface layer
// is the numerically highest head layer. Earlier tooling compared the
// layer suffix as text, which picks H9 over H10; this package compares
// numbers.
//
// # Time
//
// Simulation time is seconds since an epoch (default 2002-01-01T00:00:00Z).
// ToCalendar turns it into instants and keeps the seconds as elapsed_time.
// AggregateWeekly buckets by ISO 8601 week: weeks start Monday and week 1
// contains the year's first Thursday, so 2005-01-01 (a Saturday) belongs
// to 2004-W53.
//
// Spreadsheet date serials (days since 1899-12-30) are the shared x-axis
// for comparing simulated and observed depth. See [DateSerial] and [Align].
package domain
