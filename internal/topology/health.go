package topology

// Utilization thresholds (percent). The same policy drives persisted link
// status and the color the dashboard draws a link in.
const (
	CriticalThreshold = 90.0
	WarningThreshold  = 75.0
)

// Utilization returns bandwidth as a percentage of max. A link without a
// capacity reports zero.
func Utilization(bandwidth, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return bandwidth / max * 100
}

// ClassifyUtilization maps a utilization percentage to a health tier.
func ClassifyUtilization(pct float64) LinkHealth {
	switch {
	case pct > CriticalThreshold:
		return HealthCritical
	case pct > WarningThreshold:
		return HealthWarning
	default:
		return HealthHealthy
	}
}
