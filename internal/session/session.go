// Package session tracks per-user conversation state. Sessions live in
// memory only; a restart drops every half-finished dialog, which is fine
// because nothing is persisted until a flow completes.
package session

import (
	"sync"

	"github.com/mexan-workshop/mexanbot/internal/repair"
)

// Stage identifies which input the conversation is waiting for.
type Stage int

const (
	StageNone Stage = iota

	// Creation flow.
	StageName
	StageSource
	StageContact
	StageBikeType
	StageBikeName
	StageBreakdowns
	StageElectricSelect
	StageElectricCustom
	StageCost
	StageNotes

	// Edit flow.
	StageEditField
	StageEditName
	StageEditContact
	StageEditSource
	StageEditBikeType
	StageEditBikeName
	StageEditBreakdowns
	StageEditElectricSelect
	StageEditElectricCustom
	StageEditCost
	StageEditNotes
	StageEditDate
	StageEditArchiveDate

	// Reports.
	StageReportPeriod
)

// Session holds one user's in-flight dialog.
type Session struct {
	Stage Stage

	// Draft accumulates fields during the creation flow.
	Draft repair.Record

	// Working holds the breakdown list being assembled through the
	// electric-bike picker.
	Working []string

	// SuggestedCost is the sum of embedded prices, offered as a one-tap
	// total at the cost step.
	SuggestedCost int

	// EditID is the record being edited, zero outside the edit flow.
	EditID int

	// ReportFilter carries the chosen source between the filter and
	// period steps of the report dialog.
	ReportFilter string
}

// Store is a concurrency-safe map of sessions keyed by user id.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating an idle one on first contact.
func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	return sess
}

// Clear resets the user's dialog to idle.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
