// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for a game session:
//  1. [SetupView] : Enter player names
//  2. [PlaylistListView] : Browse and select a source playlist
//  3. [LoadingView] : Monitor deck building progress
//  4. [TurnView] : Listen to a snippet, guess title/artist and pick a placement
//  5. [FeedbackView] : Show the scored result before the turn advances
//  6. [GameOverView] : Display final standings
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Deck building progress flows through a channel from the DeckBuilder, providing
// non-blocking status reporting while tracks are fetched and normalized.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
