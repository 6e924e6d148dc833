package reporting

// Kind is a report variant. The set is closed; every switch over Kind in
// this module is exhaustive.
type Kind string

const (
	KindDiagnosticsSummary Kind = "diagnostics_summary"
	KindTasksSummary       Kind = "tasks_summary"
	KindFull               Kind = "full_report"
)

// Group names a top-level metric group of the payload.
type Group string

const (
	GroupPeriod          Group = "period"
	GroupDiagnostics     Group = "diagnostics"
	GroupRecommendations Group = "recommendations"
	GroupTasks           Group = "tasks"
	GroupTimeseries      Group = "timeseries"
	GroupGreenhouseStats Group = "greenhouse_stats"
	GroupOperatorStats   Group = "operator_stats"
	GroupEconomics       Group = "economics"
)

// AllGroups lists every group in serialization order.
var AllGroups = []Group{
	GroupPeriod,
	GroupDiagnostics,
	GroupRecommendations,
	GroupTasks,
	GroupTimeseries,
	GroupGreenhouseStats,
	GroupOperatorStats,
	GroupEconomics,
}

// ResolveKind maps a stored or requested report_type label onto a Kind.
// Unrecognized labels resolve to KindFull and ok is false.
func ResolveKind(label string) (kind Kind, ok bool) {
	switch Kind(label) {
	case KindDiagnosticsSummary:
		return KindDiagnosticsSummary, true
	case KindTasksSummary:
		return KindTasksSummary, true
	case KindFull:
		return KindFull, true
	default:
		return KindFull, false
	}
}

// Groups returns the groups included for the kind, in serialization order.
func (k Kind) Groups() []Group {
	switch k {
	case KindDiagnosticsSummary:
		return []Group{GroupPeriod, GroupDiagnostics, GroupTimeseries, GroupGreenhouseStats}
	case KindTasksSummary:
		return []Group{GroupPeriod, GroupRecommendations, GroupTasks, GroupOperatorStats}
	case KindFull:
		return AllGroups
	default:
		return AllGroups
	}
}

// Includes reports whether the group belongs to the kind.
func (k Kind) Includes(g Group) bool {
	for _, candidate := range k.Groups() {
		if candidate == g {
			return true
		}
	}
	return false
}

// Label is the human readable title of the kind.
func (k Kind) Label() string {
	switch k {
	case KindDiagnosticsSummary:
		return "Diagnostics summary"
	case KindTasksSummary:
		return "Tasks summary"
	case KindFull:
		return "Full report"
	default:
		return "Full report"
	}
}
