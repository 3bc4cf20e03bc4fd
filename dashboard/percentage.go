// Package dashboard loads and renders the student, faculty and admin views.
package dashboard

// LowAttendanceThreshold is the minimum attendance percentage a student must
// keep in every course.
const LowAttendanceThreshold = 75.0

const goodAttendanceThreshold = 85.0

// CalculatePercentage returns attended/total as a percentage. A missing or
// zero total yields 0, as does a missing attended count.
func CalculatePercentage(attended, total *int) float64 {
	if total == nil || *total == 0 || attended == nil {
		return 0
	}
	return float64(*attended) / float64(*total) * 100
}

// Standing grades a percentage against the attendance thresholds.
func Standing(percentage float64) string {
	switch {
	case percentage >= goodAttendanceThreshold:
		return "Good"
	case percentage >= LowAttendanceThreshold:
		return "OK"
	}
	return "Low"
}
