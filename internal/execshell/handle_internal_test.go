package execshell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecutionHandleFinishesOnlyOnce(testInstance *testing.T) {
	startTime := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	testCases := []struct {
		name          string
		firstState    HandleState
		secondState   HandleState
		expectedState HandleState
	}{
		{
			name:          "exit_then_cancel",
			firstState:    HandleStateExited,
			secondState:   HandleStateCancelled,
			expectedState: HandleStateExited,
		},
		{
			name:          "cancel_then_exit",
			firstState:    HandleStateCancelled,
			secondState:   HandleStateExited,
			expectedState: HandleStateCancelled,
		},
		{
			name:          "exit_twice",
			firstState:    HandleStateFailed,
			secondState:   HandleStateExited,
			expectedState: HandleStateFailed,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			handle := newExecutionHandle("invocation", ShellCommand{Name: CommandSalesforceCLI}, nil, startTime)
			require.False(testInstance, handle.finish(HandleStateRunning, ExecutionResult{}, nil, startTime))

			require.True(testInstance, handle.finish(testCase.firstState, ExecutionResult{ExitCode: 1}, nil, startTime.Add(time.Second)))
			require.False(testInstance, handle.finish(testCase.secondState, ExecutionResult{ExitCode: 7}, errors.New("late"), startTime.Add(2*time.Second)))

			require.Equal(testInstance, testCase.expectedState, handle.State())
			require.Equal(testInstance, startTime.Add(time.Second), handle.FinishedAt())

			result, waitError := handle.Wait(context.Background())
			require.NoError(testInstance, waitError)
			require.Equal(testInstance, 1, result.ExitCode)
		})
	}
}

func TestExecutionHandleWaitHonorsContext(testInstance *testing.T) {
	handle := newExecutionHandle("invocation", ShellCommand{Name: CommandSalesforceCLI}, nil, time.Now())
	waitContext, cancelWait := context.WithCancel(context.Background())
	cancelWait()

	_, waitError := handle.Wait(waitContext)
	require.ErrorIs(testInstance, waitError, context.Canceled)
	require.Equal(testInstance, HandleStateRunning, handle.State())
	require.Equal(testInstance, "running", handle.State().String())
}
