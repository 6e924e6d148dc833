package reporting

// Economics is the multiplier table behind the economics group. The values
// are placeholders, not validated cost figures; replace the table, not the
// aggregation code.
type Economics struct {
	PreventedLossPerDiagnosis float64
	SavedHoursPerTask         float64
}

// DefaultEconomics is used when no table is configured.
var DefaultEconomics = Economics{
	PreventedLossPerDiagnosis: 1.5,
	SavedHoursPerTask:         0.5,
}

func (e Economics) estimate(diagnoses, tasks int) EconomicsMetrics {
	return EconomicsMetrics{
		PreventedLoss: round2(float64(diagnoses) * e.PreventedLossPerDiagnosis),
		SavedHours:    round2(float64(tasks) * e.SavedHoursPerTask),
	}
}
