package format

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Size renders a byte count with one decimal in 1024-based units,
// e.g. 2684354560 -> "2.5 GB". Zero renders as "0B".
func Size(n int64) string {
	if n <= 0 {
		return "0B"
	}
	v := float64(n)
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}
