package model

// MetadataFieldKind selects the input widget used to collect a metadata value.
type MetadataFieldKind string

const (
	MetadataFieldKindText      MetadataFieldKind = "text"
	MetadataFieldKindMultiline MetadataFieldKind = "multiline"
	MetadataFieldKindSelect    MetadataFieldKind = "select"
)

// MetadataField describes one type-specific form field.
type MetadataField struct {
	Name    string
	Label   string
	Kind    MetadataFieldKind
	Options []string
}

// TypeSchema pairs the metadata fields for a feedback type with an optional
// notice rendered above the form.
type TypeSchema struct {
	Fields []MetadataField
	Notice string
}

const securityReportNotice = "Security reports are kept confidential and are only visible to the triage team."

var severityOptions = []string{"low", "medium", "high", "critical"}

var metadataSchemasByType = map[FeedbackType]TypeSchema{
	FeedbackTypeModelRequest: {
		Fields: []MetadataField{
			{Name: "use_case", Label: "Primary use case", Kind: MetadataFieldKindMultiline},
			{Name: "latency_requirement", Label: "Latency requirement", Kind: MetadataFieldKindText},
			{Name: "cost_sensitivity", Label: "Cost sensitivity", Kind: MetadataFieldKindSelect, Options: []string{"low", "medium", "high"}},
		},
	},
	FeedbackTypeBugReport: {
		Fields: []MetadataField{
			{Name: "repro_steps", Label: "Steps to reproduce", Kind: MetadataFieldKindMultiline},
			{Name: "expected_behavior", Label: "Expected behavior", Kind: MetadataFieldKindMultiline},
			{Name: "actual_behavior", Label: "Actual behavior", Kind: MetadataFieldKindMultiline},
			{Name: "severity", Label: "Severity", Kind: MetadataFieldKindSelect, Options: severityOptions},
		},
	},
	FeedbackTypeFeatureRequest: {
		Fields: []MetadataField{
			{Name: "problem_statement", Label: "Problem this solves", Kind: MetadataFieldKindMultiline},
			{Name: "current_workaround", Label: "Current workaround", Kind: MetadataFieldKindMultiline},
			{Name: "impact", Label: "Impact", Kind: MetadataFieldKindSelect, Options: []string{"nice_to_have", "important", "blocking"}},
		},
	},
	FeedbackTypePerformanceIssue: {
		Fields: []MetadataField{
			{Name: "affected_area", Label: "Affected area", Kind: MetadataFieldKindText},
			{Name: "expected_performance", Label: "Expected performance", Kind: MetadataFieldKindText},
			{Name: "actual_performance", Label: "Actual performance", Kind: MetadataFieldKindText},
			{Name: "frequency", Label: "Frequency", Kind: MetadataFieldKindSelect, Options: []string{"always", "often", "sometimes", "rarely"}},
		},
	},
	FeedbackTypeSecurityReport: {
		Fields: []MetadataField{
			{Name: "repro_steps", Label: "Steps to reproduce", Kind: MetadataFieldKindMultiline},
			{Name: "severity", Label: "Severity", Kind: MetadataFieldKindSelect, Options: severityOptions},
		},
		Notice: securityReportNotice,
	},
	FeedbackTypeGeneral: {},
}

// MetadataSchemaForType returns the type-specific form schema. Unknown types
// resolve to an empty schema.
func MetadataSchemaForType(feedbackType FeedbackType) TypeSchema {
	return metadataSchemasByType[feedbackType]
}

// MetadataFieldNamesForType lists the metadata field names for a feedback type.
func MetadataFieldNamesForType(feedbackType FeedbackType) []string {
	schema := metadataSchemasByType[feedbackType]
	names := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		names = append(names, field.Name)
	}
	return names
}
