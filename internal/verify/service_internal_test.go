package verify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckTableStructure(testInstance *testing.T) {
	testCases := []struct {
		name           string
		records        []FeatureRecord
		expectedPassed bool
	}{
		{
			name: "complete_provenance_passes",
			records: []FeatureRecord{
				{Name: "Auth", SHA: "abc123", Author: "alice"},
			},
			expectedPassed: true,
		},
		{
			name: "empty_author_fails",
			records: []FeatureRecord{
				{Name: "Auth", SHA: "abc123"},
			},
			expectedPassed: false,
		},
		{
			name: "empty_sha_fails",
			records: []FeatureRecord{
				{Name: "Auth", Author: "alice"},
			},
			expectedPassed: false,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			stepResult := checkTableStructure(testCase.records)
			require.Equal(subtestInstance, StepTableStructure, stepResult.Name)
			require.Equal(subtestInstance, testCase.expectedPassed, stepResult.Passed)
		})
	}
}
