package workflow

import "math"

// Summary is the end-of-day performance report for one session.
type Summary struct {
	TotalPackages int    `json:"totalPackages"`
	Delivered     int    `json:"delivered"`
	Pending       int    `json:"pending"`
	Returned      int    `json:"returned"`
	Outstanding   int    `json:"outstanding"`
	CODTotal      int    `json:"codTotal"`
	CODDelivered  int    `json:"codDelivered"`
	SuccessRate   int    `json:"successRate"`
	Grade         string `json:"grade"`
}

// Summarize builds the performance report from s.
// The total is the delivery set size, falling back to the daily template
// count before delivery starts.
func Summarize(s Snapshot) Summary {
	sum := Summary{
		TotalPackages: len(s.DeliveryPackages),
		Delivered:     len(s.DeliveredPackages),
		Pending:       len(s.PendingPackages),
		Outstanding:   s.Outstanding(),
	}
	if sum.TotalPackages == 0 {
		sum.TotalPackages = len(s.DailyPackages)
	}
	sum.Returned = sum.Pending - sum.Outstanding

	for _, p := range s.DeliveryPackages {
		if p.IsCOD {
			sum.CODTotal++
		}
	}
	for _, p := range s.DeliveredPackages {
		if p.IsCOD {
			sum.CODDelivered++
		}
	}

	if sum.TotalPackages > 0 {
		sum.SuccessRate = int(math.Round(float64(sum.Delivered) * 100 / float64(sum.TotalPackages)))
	}
	sum.Grade = Grade(sum.SuccessRate)

	return sum
}

// Grade maps a success rate percentage to a letter grade.
func Grade(rate int) string {
	switch {
	case rate >= 90:
		return "A"
	case rate >= 80:
		return "B"
	case rate >= 70:
		return "C"
	default:
		return "D"
	}
}
