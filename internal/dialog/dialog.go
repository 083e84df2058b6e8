// Package dialog holds the single global dialog slot. Quick actions and row
// menus record an intent here; the TUI host reads it to decide which form to
// show. At most one intent exists at a time and opening a new one replaces it.
package dialog

import (
	"fmt"
	"maps"
	"sync"
)

// Action identifies which dialog is requested.
type Action int

const (
	ActionNone Action = iota
	ActionNewProject
	ActionNewContract
	ActionCreateInvoice
	ActionAddClient
	ActionNewQuotation
)

// QuickActions lists the actions reachable from the quick action menu, in shortcut order.
var QuickActions = []Action{
	ActionNewProject,
	ActionNewContract,
	ActionCreateInvoice,
	ActionAddClient,
	ActionNewQuotation,
}

var actionNames = map[Action]string{
	ActionNone:          "none",
	ActionNewProject:    "newProject",
	ActionNewContract:   "newContract",
	ActionCreateInvoice: "createInvoice",
	ActionAddClient:     "addClient",
	ActionNewQuotation:  "newQuotation",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Valid reports whether a names a dialog that can be opened.
func (a Action) Valid() bool {
	return a > ActionNone && a <= ActionNewQuotation
}

// ParseAction converts an action name such as "newProject".
func ParseAction(raw string) (Action, error) {
	for a, name := range actionNames {
		if name == raw && a != ActionNone {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown dialog action %q", raw)
}

// Payload is the free-form data handed to the dialog, such as a project to edit.
type Payload map[string]any

// Intent is the current state of the dialog slot.
type Intent struct {
	IsOpen  bool
	Action  Action
	Payload Payload
}

// Store holds the single dialog intent. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	intent Intent
}

// NewStore returns a closed dialog slot.
func NewStore() *Store {
	return &Store{}
}

// Open records an intent to show the dialog for action, replacing any prior
// intent. The payload is copied; a nil payload becomes an empty one.
func (s *Store) Open(action Action, payload Payload) {
	p := Payload{}
	maps.Copy(p, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = Intent{IsOpen: true, Action: action, Payload: p}
}

// Close clears the open flag, the action and the payload together.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = Intent{}
}

// UpdateData merges partial into the current payload. When there is no
// payload the partial becomes the payload. The open flag is not changed.
func (s *Store) UpdateData(partial Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intent.Payload == nil {
		s.intent.Payload = Payload{}
	}
	maps.Copy(s.intent.Payload, partial)
}

// Snapshot returns a copy of the current intent.
func (s *Store) Snapshot() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.intent
	if s.intent.Payload != nil {
		out.Payload = maps.Clone(s.intent.Payload)
	}
	return out
}

// String returns the payload value for key as a string, or "" when absent.
func (p Payload) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
