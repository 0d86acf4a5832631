// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow for browsing the local library:
//  1. [PlaylistListView] : Browse stored playlists, cycling space filters with tab
//  2. [TrackListView] : View a playlist's tracks in membership order
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Data loads happen in commands so the UI never blocks on SQLite.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
