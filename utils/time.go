package utils

import "fmt"

// FormatETA formats a remaining-time estimate in seconds as MM:SS, or
// H:MM:SS once it reaches an hour
func FormatETA(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
