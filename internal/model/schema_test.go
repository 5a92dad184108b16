package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataSchemaForType(testingT *testing.T) {
	testCases := []struct {
		name           string
		feedbackType   FeedbackType
		expectedFields []string
		expectNotice   bool
	}{
		{
			name:           "modelRequest",
			feedbackType:   FeedbackTypeModelRequest,
			expectedFields: []string{"use_case", "latency_requirement", "cost_sensitivity"},
		},
		{
			name:           "bugReport",
			feedbackType:   FeedbackTypeBugReport,
			expectedFields: []string{"repro_steps", "expected_behavior", "actual_behavior", "severity"},
		},
		{
			name:           "featureRequest",
			feedbackType:   FeedbackTypeFeatureRequest,
			expectedFields: []string{"problem_statement", "current_workaround", "impact"},
		},
		{
			name:           "performanceIssue",
			feedbackType:   FeedbackTypePerformanceIssue,
			expectedFields: []string{"affected_area", "expected_performance", "actual_performance", "frequency"},
		},
		{
			name:           "securityReportCarriesNotice",
			feedbackType:   FeedbackTypeSecurityReport,
			expectedFields: []string{"repro_steps", "severity"},
			expectNotice:   true,
		},
		{
			name:           "generalHasNoFields",
			feedbackType:   FeedbackTypeGeneral,
			expectedFields: []string{},
		},
		{
			name:           "unknownTypeResolvesEmpty",
			feedbackType:   FeedbackType("banana"),
			expectedFields: []string{},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(nestedT *testing.T) {
			schema := MetadataSchemaForType(testCase.feedbackType)
			require.Equal(nestedT, testCase.expectedFields, MetadataFieldNamesForType(testCase.feedbackType))
			require.Len(nestedT, schema.Fields, len(testCase.expectedFields))
			if testCase.expectNotice {
				require.NotEmpty(nestedT, schema.Notice)
			} else {
				require.Empty(nestedT, schema.Notice)
			}
		})
	}
}

func TestSelectFieldsCarryOptions(testingT *testing.T) {
	for feedbackType, schema := range metadataSchemasByType {
		for _, field := range schema.Fields {
			if field.Kind == MetadataFieldKindSelect {
				require.NotEmpty(testingT, field.Options, "%s/%s", feedbackType, field.Name)
			} else {
				require.Empty(testingT, field.Options, "%s/%s", feedbackType, field.Name)
			}
		}
	}
}
