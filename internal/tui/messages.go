// Package tui provides Bubble Tea models for the interactive dashboard.
package tui

import (
	"github.com/robby/pmdash/internal/auth"
	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/domain"
)

// ErrorMsg is emitted when an error stops the current screen.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// SignedInMsg is emitted after a successful sign in.
type SignedInMsg struct {
	Session *auth.Session
}

// PickedMsg is emitted when an entry is chosen in a picker.
type PickedMsg struct {
	Kind  pickerKind
	Value string
}

// Messages shared between screens.
type (
	projectsLoadedMsg struct {
		seq      uint64
		projects []domain.ProjectWithClient
		err      error
	}

	openDetailMsg  struct{ id string }
	closeDetailMsg struct{}

	// openDialogMsg asks the dashboard to record an intent and mount its form.
	openDialogMsg struct {
		action  dialog.Action
		payload dialog.Payload
	}

	dialogClosedMsg struct{}

	projectSavedMsg struct {
		project domain.Project
		edited  bool
	}

	projectSaveFailedMsg struct{ err error }

	clientsLoadedMsg struct {
		clients []domain.Client
		err     error
	}

	projectDetailMsg struct {
		project domain.ProjectWithClient
		err     error
	}

	signInFailedMsg struct{ err error }

	pickerClosedMsg struct{}
)
