// Package ui implements an interactive terminal client using bubbletea's Elm architecture.
//
// The TUI has two states:
//  1. [LoginView] : Sign in, or switch to the signup form with ctrl+n
//  2. [DashboardView] : Tabs for My Events, Marketplace and Requests
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Toasts, navigation and snapshot renders arrive through an [Inbox], which the data views and the
// session store write to from their own goroutines. The model drains it one message at a time.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
