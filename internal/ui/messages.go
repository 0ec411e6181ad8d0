package ui

import "greptree/internal/domain"

// progressMsg reports a file or directory picked up by the search
type progressMsg struct {
	path   string
	isFile bool
}

// foundMsg carries a file with at least one match
type foundMsg struct {
	result domain.FileResult
}

// errorMsg carries a non-fatal search error
type errorMsg struct {
	message string
}

// completeMsg signals the end of the search
type completeMsg struct{}

// pagerDoneMsg is sent when the pager returns control to the UI
type pagerDoneMsg struct {
	path string
	err  error
}
