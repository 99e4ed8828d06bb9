package vault

import (
	"fmt"
	"time"
)

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with one decimal place, scaling by 1024
// through B/KB/MB/GB/TB. Scaling stops at TB.
func FormatSize(n int64) string {
	v := float64(n)
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// FormatModTime renders a modification time in the host's local time zone.
func FormatModTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
