// Package runtime provides the execution context for stageport commands.
//
// It encapsulates shared dependencies needed by commands, such as the loaded
// configuration, the logger and the clock, and builds stages from them.
package runtime
