package execshell

// CommandEventObserver receives lifecycle notifications for dispatched commands.
// Exactly one of CommandCompleted, CommandExecutionFailed, or CommandCancelled follows CommandStarted.
type CommandEventObserver interface {
	// CommandStarted notifies observers that the process is running.
	CommandStarted(handle *ExecutionHandle)
	// CommandCompleted notifies observers that the process exited and supplies the result.
	CommandCompleted(handle *ExecutionHandle, result ExecutionResult)
	// CommandExecutionFailed reports failures while waiting on the process.
	CommandExecutionFailed(handle *ExecutionHandle, failure error)
	// CommandCancelled reports that the invocation was cancelled before the process finished.
	CommandCancelled(handle *ExecutionHandle)
}
