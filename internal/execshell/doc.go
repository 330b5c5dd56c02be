// Package execshell dispatches external command-line tools as asynchronous
// child processes.
//
// Dispatcher resolves the target program, starts it through a CommandRunner,
// and hands back an ExecutionHandle whose terminal state is reached exactly
// once. Process output is split into lines for OutputLineHandler sinks and
// lifecycle transitions are broadcast to CommandEventObserver implementations.
// OSCommandRunner provides the os/exec backed runner used in production.
package execshell
