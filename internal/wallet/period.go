package wallet

// Period is the recurrence cadence of a benefit's limit reset.
// Unrecognized values are kept verbatim.
type Period string

// Known period codes.
const (
	PeriodMonthly    Period = "monthly"
	PeriodQuarter    Period = "quarter"
	PeriodSemiannual Period = "semiannual"
	PeriodAnnual     Period = "annual"
)

// PeriodOther is the label shown for any unrecognized period.
const PeriodOther = "Other"

var periodLabels = map[Period]string{
	PeriodQuarter:    "Quarterly",
	PeriodSemiannual: "Every 6 months",
	PeriodMonthly:    "Monthly",
	PeriodAnnual:     "Annual",
}

// Periods lists the known periods in the order forms offer them.
var Periods = []Period{PeriodMonthly, PeriodQuarter, PeriodSemiannual, PeriodAnnual}

// PeriodLabel maps a period code to its human label.
func PeriodLabel(p Period) string {
	if label, ok := periodLabels[p]; ok {
		return label
	}
	return PeriodOther
}

// Known reports whether p is one of the four recognized periods.
func (p Period) Known() bool {
	_, ok := periodLabels[p]
	return ok
}
