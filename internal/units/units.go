// Package units names the physical units of TrackML columns
package units

import "fmt"

// Unit constants
const (
	MM  = "mm"
	GeV = "GeV"
	Rad = "rad"
)

// columnUnits maps event column names to their units. Identifiers, eta and
// weights are dimensionless and absent.
var columnUnits = map[string]string{
	"x":   MM,
	"y":   MM,
	"z":   MM,
	"r":   MM,
	"tx":  MM,
	"ty":  MM,
	"tz":  MM,
	"tR":  MM,
	"phi": Rad,
	"tpx": GeV,
	"tpy": GeV,
	"tpz": GeV,
	"tpt": GeV,
}

// Of returns the unit of a column, or "" when it is dimensionless or
// unknown.
func Of(column string) string {
	return columnUnits[column]
}

// Label formats an axis label for a column, e.g. "r [mm]".
func Label(column string) string {
	if u := Of(column); u != "" {
		return fmt.Sprintf("%s [%s]", column, u)
	}
	return column
}
