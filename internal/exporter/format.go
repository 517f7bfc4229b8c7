package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 for report output with exactly 2
// decimal places so values like 13.4 appear as 13.40.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatNullableFloat renders a missing value as an empty cell
func formatNullableFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
