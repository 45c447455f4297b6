package model

// Collection names served by the document store. These are configuration
// constants shared by the server, the feed layer, and the CLI.
const (
	CollectionAnomalyCases       = "anomaly_cases"
	CollectionDiagnosisCases     = "diagnosis_cases"
	CollectionRCACases           = "rca_cases"
	CollectionSchedulingCases    = "scheduling_cases"
	CollectionEngagementCases    = "engagement_cases"
	CollectionFeedbackCases      = "feedback_cases"
	CollectionManufacturingCases = "manufacturing_cases"
	CollectionTelemetryEvents    = "telemetry_events"
)

// Collections lists every known collection in a stable order.
var Collections = []string{
	CollectionAnomalyCases,
	CollectionDiagnosisCases,
	CollectionRCACases,
	CollectionSchedulingCases,
	CollectionEngagementCases,
	CollectionFeedbackCases,
	CollectionManufacturingCases,
	CollectionTelemetryEvents,
}

// KnownCollection reports whether name is one of the served collections.
func KnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
