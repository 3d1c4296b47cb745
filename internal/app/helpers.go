package app

import (
	"fmt"
	"time"
)

// defaultExportPath names a timestamped CSV file in the working directory.
func defaultExportPath(now time.Time) string {
	return fmt.Sprintf("orders-%s.csv", now.Format("20060102-150405"))
}

// joinNames joins source names for display.
func joinNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	result := names[0]
	for i := 1; i < len(names); i++ {
		result += ", " + names[i]
	}
	return result
}
