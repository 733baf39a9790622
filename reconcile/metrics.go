package reconcile

import "math"

// EffectiveRate returns price per hour. It is undefined unless both price and
// hours are positive.
func EffectiveRate(job MergedJob) (float64, bool) {
	price, hours := job.Price, job.TotalHours
	if !(price > 0) || !(hours > 0) || math.IsInf(price, 0) || math.IsInf(hours, 0) {
		return 0, false
	}
	return price / hours, true
}

// PersonRevenueShare attributes job revenue to person by share of hours.
// Non-costable jobs attribute nothing.
func PersonRevenueShare(job MergedJob, person PersonShare) float64 {
	if !job.Costable || job.Price <= 0 {
		return 0
	}
	return job.Price * person.Fraction
}

// MonthlyRevenue spreads the job price over months by hours. This assumes a
// uniform hourly value across the job and is an estimate, not a ledger entry.
func MonthlyRevenue(job MergedJob, month string) float64 {
	if !job.Costable || job.Price <= 0 || job.TotalHours <= 0 {
		return 0
	}
	return job.ByMonth[month] / job.TotalHours * job.Price
}

// Utilization is the costable share of total hours.
func Utilization(costableHours, totalHours float64) float64 {
	if totalHours <= 0 {
		return 0
	}
	return costableHours / totalHours
}
