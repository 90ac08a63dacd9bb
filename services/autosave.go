package services

import (
	"fmt"
	"log"
	"reflect"
	"time"

	deepcopy "github.com/tiendc/go-deepcopy"

	"shop_visit_app_go/models"
)

// flowState tracks where the persistence machinery currently is. Only
// one background operation is ever pending or in flight at a time:
// creation is sequenced strictly before any autosave because autosave
// is gated on an identifier being present.
type flowState int

const (
	flowIdle flowState = iota
	flowCreationPending
	flowCreationInFlight
	flowAutosavePending
	flowAutosaveInFlight
	flowDone
)

func (s flowState) String() string {
	switch s {
	case flowIdle:
		return "idle"
	case flowCreationPending:
		return "creation-pending"
	case flowCreationInFlight:
		return "creation-in-flight"
	case flowAutosavePending:
		return "autosave-pending"
	case flowAutosaveInFlight:
		return "autosave-in-flight"
	case flowDone:
		return "done"
	}
	return "unknown"
}

// cloneDraft deep-copies the draft so snapshots and write payloads
// never alias the live record. Caller must hold the lock.
func (l *VisitLifecycle) cloneDraft() models.ShopVisit {
	var clone models.ShopVisit
	if err := deepcopy.Copy(&clone, &l.draft); err != nil {
		// Copy only fails on type mismatch, which cannot happen here
		log.Printf("[VISIT] draft clone failed: %v", err)
		clone = l.draft
	}
	return clone
}

// isDirty reports whether the draft differs from the last persisted
// snapshot. Caller must hold the lock.
func (l *VisitLifecycle) isDirty() bool {
	if l.snapshot == nil {
		return false
	}
	return !reflect.DeepEqual(l.draft, *l.snapshot)
}

func (l *VisitLifecycle) cancelPendingTimer() {
	if l.pendingTimer != nil {
		l.pendingTimer.Stop()
		l.pendingTimer = nil
	}
	if l.state == flowCreationPending || l.state == flowAutosavePending {
		l.state = flowIdle
	}
}

// scheduleCreate arms (or re-arms) the debounced creation of the
// durable record. A delay of zero fires on the next scheduler tick,
// used when an appointment must be persisted right away. Caller must
// hold the lock.
func (l *VisitLifecycle) scheduleCreate(delay time.Duration) {
	if l.closed || l.draft.ID != "" || l.draft.CustomerID == "" || l.createAttempted {
		return
	}
	switch l.state {
	case flowIdle, flowCreationPending:
	default:
		return
	}
	l.cancelPendingTimer()
	l.state = flowCreationPending
	l.pendingTimer = l.clock.AfterFunc(delay, l.fireCreate)
}

// fireCreate runs when the creation debounce window closes. All
// preconditions are re-checked because the state may have moved on
// while the timer was pending.
func (l *VisitLifecycle) fireCreate() {
	l.mu.Lock()
	if l.closed || l.state != flowCreationPending {
		l.mu.Unlock()
		return
	}
	if l.draft.ID != "" || l.draft.CustomerID == "" || l.createAttempted {
		l.state = flowIdle
		l.mu.Unlock()
		return
	}

	l.createAttempted = true
	l.state = flowCreationInFlight
	now := l.clock.Now()
	l.draft.DraftSavedAt = &now
	payload := l.cloneDraft()
	// The snapshot must baseline what the store receives, not the live
	// draft: edits landing while the write is in flight have to stay
	// dirty so the trailing re-arm picks them up.
	saved := l.cloneDraft()
	l.mu.Unlock()

	err := l.store.CreateVisit(&payload)

	l.mu.Lock()
	if err != nil {
		// Clearing the attempted flag lets further edits or explicit
		// navigation retry the creation.
		l.createAttempted = false
		l.state = flowIdle
		l.mu.Unlock()
		log.Printf("[VISIT] Auto-create visit failed: %v", err)
		if l.onError != nil {
			l.onError(fmt.Errorf("could not create visit report draft: %w", err))
		}
		return
	}

	l.draft.ID = payload.ID
	saved.ID = payload.ID
	l.snapshot = &saved
	l.lastSavedAt = now
	l.state = flowIdle
	// Edits that arrived while the creation was in flight still need
	// to reach the store.
	l.scheduleSave(l.saveDelay)
	l.mu.Unlock()
}

// scheduleSave arms (or re-arms) the trailing-edge autosave debounce.
// Caller must hold the lock.
func (l *VisitLifecycle) scheduleSave(delay time.Duration) {
	if l.closed || l.draft.ID == "" || l.draft.IsDone() || !l.isDirty() {
		return
	}
	switch l.state {
	case flowIdle, flowAutosavePending:
	default:
		return
	}
	l.cancelPendingTimer()
	l.state = flowAutosavePending
	l.pendingTimer = l.clock.AfterFunc(delay, l.fireAutosave)
}

// fireAutosave runs when the autosave debounce window closes and
// persists the full draft if it still differs from the last snapshot.
func (l *VisitLifecycle) fireAutosave() {
	l.mu.Lock()
	if l.closed || l.state != flowAutosavePending {
		l.mu.Unlock()
		return
	}
	if l.draft.ID == "" || l.draft.IsDone() || !l.isDirty() {
		l.state = flowIdle
		l.mu.Unlock()
		return
	}

	l.state = flowAutosaveInFlight
	now := l.clock.Now()
	l.draft.DraftSavedAt = &now
	payload := l.cloneDraft()
	// Snapshot what is being written, not the draft as it stands after
	// the write returns. Edits applied during the flight must leave the
	// draft dirty so the re-arm below retries them.
	saved := l.cloneDraft()
	l.mu.Unlock()

	err := l.store.UpdateVisit(payload.ID, &payload)

	l.mu.Lock()
	if err != nil {
		// Non-fatal: the snapshot pointer stays put so the next edit
		// retries the accumulated diff.
		log.Printf("[VISIT] Auto-save failed for visit %s: %v", payload.ID, err)
		l.state = flowIdle
	} else {
		l.snapshot = &saved
		l.lastSavedAt = now
		l.state = flowIdle
	}
	// Pick up edits that arrived during the write.
	l.scheduleSave(l.saveDelay)
	l.mu.Unlock()
}

// EnsureCreated creates the durable record synchronously if it does
// not exist yet. Used by explicit actions (section navigation, manual
// save) where the user expects an actionable error on failure.
func (l *VisitLifecycle) EnsureCreated() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureCreatedLocked()
}

func (l *VisitLifecycle) ensureCreatedLocked() error {
	if l.closed {
		return ErrLifecycleClosed
	}
	if l.draft.ID != "" {
		return nil
	}
	if l.draft.CustomerID == "" {
		return ErrCustomerRequired
	}
	if l.state == flowCreationInFlight {
		return nil
	}

	l.cancelPendingTimer()
	l.createAttempted = true
	l.state = flowCreationInFlight
	now := l.clock.Now()
	l.draft.DraftSavedAt = &now
	payload := l.cloneDraft()

	if err := l.store.CreateVisit(&payload); err != nil {
		l.createAttempted = false
		l.state = flowIdle
		return fmt.Errorf("could not create visit report draft: %w", err)
	}

	l.draft.ID = payload.ID
	snap := l.cloneDraft()
	l.snapshot = &snap
	l.lastSavedAt = now
	l.state = flowIdle
	return nil
}

// Flush is the user-invoked manual save: it cancels any pending
// debounce, creates the record if needed and writes the full draft
// immediately under the usual guards. Unlike autosave, errors are
// returned to the caller.
func (l *VisitLifecycle) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLifecycleClosed
	}
	if l.draft.IsDone() {
		return nil
	}
	if l.state == flowCreationInFlight || l.state == flowAutosaveInFlight {
		return nil
	}

	l.cancelPendingTimer()
	if err := l.ensureCreatedLocked(); err != nil {
		return err
	}
	if !l.isDirty() {
		return nil
	}

	l.state = flowAutosaveInFlight
	now := l.clock.Now()
	l.draft.DraftSavedAt = &now
	payload := l.cloneDraft()

	err := l.store.UpdateVisit(payload.ID, &payload)
	if err != nil {
		l.state = flowIdle
		return fmt.Errorf("failed to save draft: %w", err)
	}

	snap := l.cloneDraft()
	l.snapshot = &snap
	l.lastSavedAt = now
	l.state = flowIdle
	return nil
}
