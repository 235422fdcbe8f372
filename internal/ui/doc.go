// Package ui provides the colour theme for terminal output. Styles are built
// with lipgloss so that headers, success and failure markers look the same
// everywhere in the CLI, and collapse to plain text when colours are off.
package ui
