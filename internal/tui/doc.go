// Package tui provides the terminal user interface for stageport.
//
// It handles:
//   - Interactive prompts and selections (using survey)
//   - The bubbletea playground for driving a live stage
//   - Terminal detection
package tui
