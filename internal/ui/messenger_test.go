package ui_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/temirov/sfdxwatch/internal/ui"
)

func TestConsoleMessengerRoutesBySeverity(testInstance *testing.T) {
	previousNoColor := color.NoColor
	color.NoColor = true
	testInstance.Cleanup(func() { color.NoColor = previousNoColor })

	testCases := []struct {
		name           string
		show           func(messenger *ui.ConsoleMessenger, text string)
		text           string
		expectedOutput string
		expectedError  string
	}{
		{
			name:           "information",
			show:           (*ui.ConsoleMessenger).ShowInformation,
			text:           "SFDX: Get Apex Debug Logs completed successfully",
			expectedOutput: "✓ SFDX: Get Apex Debug Logs completed successfully\n",
		},
		{
			name:          "warning",
			show:          (*ui.ConsoleMessenger).ShowWarning,
			text:          "Scratch org expires tomorrow",
			expectedError: "⚠ Scratch org expires tomorrow\n",
		},
		{
			name:          "error",
			show:          (*ui.ConsoleMessenger).ShowError,
			text:          "Could not confirm completion of SFDX: Get Apex Debug Logs",
			expectedError: "✗ Could not confirm completion of SFDX: Get Apex Debug Logs\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			errorBuffer := &bytes.Buffer{}
			messenger := ui.NewConsoleMessengerWithWriters(outputBuffer, errorBuffer)

			testCase.show(messenger, testCase.text)

			require.Equal(testInstance, testCase.expectedOutput, outputBuffer.String())
			require.Equal(testInstance, testCase.expectedError, errorBuffer.String())
		})
	}
}
