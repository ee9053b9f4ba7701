// Package ui implements an interactive list editor using bubbletea's Elm architecture.
//
// Views:
//  1. [ListsView] : Browse configured lists, toggle enabled, delete, or start an update
//  2. [DetailView] : Inspect one list's prompt settings and attached data
//  3. [ConfirmDeleteView] : Confirm removing a list from the local configuration
//  4. [UpdateView] : Monitor real-time progress of a running update
//  5. [ResultView] : Per-list outcomes of the finished update
//
// The [Model] implements the standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel from the update engine.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, d, u, y/n, q) with help from charmbracelet/bubbles/help.
package ui
