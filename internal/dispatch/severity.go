package dispatch

import "math/rand"

// Severity tiers reported by the triage model
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// Priority maps a severity tier to an alert priority. Unknown tiers are treated as High.
func Priority(severity string) string {
	switch severity {
	case SeverityCritical, SeverityHigh:
		return "High"
	case SeverityMedium:
		return "Medium"
	case SeverityLow:
		return "Low"
	default:
		return "High"
	}
}

// RecommendedFacility names the facility class suited to a severity tier
func RecommendedFacility(severity string) string {
	switch severity {
	case SeverityCritical:
		return "Trauma & Critical Care Center"
	case SeverityHigh:
		return "Emergency Department - Central"
	case SeverityMedium:
		return "Urgent Care Center"
	case SeverityLow:
		return "Walk-in Clinic"
	default:
		return "Central City General"
	}
}

// ETARange is the inclusive response window in minutes for a tier
func ETARange(severity string) (int, int) {
	switch severity {
	case SeverityCritical:
		return 1, 3
	case SeverityHigh:
		return 5, 10
	case SeverityMedium:
		return 10, 20
	case SeverityLow:
		return 20, 35
	default:
		return 10, 10
	}
}

// ETA draws a response time from the tier's window
func ETA(severity string, rng *rand.Rand) int {
	lo, hi := ETARange(severity)
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// IsUrgent reports whether a tier counts toward the recent critical alert figure
func IsUrgent(severity string) bool {
	return severity == SeverityCritical || severity == SeverityHigh
}

// NotificationIcon picks the feed icon class for a tier
func NotificationIcon(severity string) string {
	if severity == SeverityCritical {
		return "fa-exclamation-circle"
	}
	return "fa-alert"
}
