package topology

// Summary holds the totals shown in the dashboard stats panel.
type Summary struct {
	TotalDevices   int
	Up             int
	Warning        int
	Down           int
	TotalBandwidth float64
	AvgUtilization float64
}

// Summarize counts devices by display status and aggregates link throughput.
func Summarize(views []DeviceView, links []Link) Summary {
	s := Summary{TotalDevices: len(views)}
	for _, v := range views {
		switch v.DisplayStatus() {
		case StatusUp:
			s.Up++
		case StatusWarning:
			s.Warning++
		default:
			s.Down++
		}
	}
	if len(links) == 0 {
		return s
	}
	var util float64
	for _, l := range links {
		s.TotalBandwidth += l.Bandwidth
		util += l.Utilization()
	}
	s.AvgUtilization = util / float64(len(links))
	return s
}
