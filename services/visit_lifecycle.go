package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"shop_visit_app_go/models"
)

// Debounce windows for the background persistence machinery
const (
	DefaultCreateDelay = 500 * time.Millisecond
	DefaultSaveDelay   = 1500 * time.Millisecond
)

var (
	ErrCustomerRequired   = errors.New("customer selection is required to create a visit draft")
	ErrVisitLocked        = errors.New("visit report has been submitted and is locked for editing")
	ErrFutureVisitDate    = errors.New("visit date cannot be in the future; use an appointment for planned visits")
	ErrSignerNameRequired = errors.New("signer name is mandatory when a signature is provided")
	ErrLifecycleClosed    = errors.New("visit lifecycle has been disposed")
)

// FieldUpdate is a partial update to the in-memory draft, keyed by the
// wire field names the form layer uses (snake_case JSON keys).
type FieldUpdate map[string]any

// appointmentSafeFields may be edited without moving an appointment to
// the draft state: scheduling, shop and contact details, and customer
// selection are all legitimate while a visit is still being planned.
var appointmentSafeFields = map[string]bool{
	"assigned_user_id":        true,
	"planned_visit_date":      true,
	"appointment_description": true,
	"visit_notes":             true,
	"visit_date":              true,
	"visit_duration":          true,
	"visit_purpose":           true,
	"customer_id":             true,
	"shop_name":               true,
	"shop_type":               true,
	"shop_address":            true,
	"contact_person":          true,
	"contact_phone":           true,
	"contact_email":           true,
	"job_title":               true,
	"zipcode":                 true,
	"city":                    true,
	"county":                  true,
	"shop_timings":            true,
}

// visitDataFields indicate that visit documentation has started. A
// meaningful value in any of these advances an appointment to a draft.
var visitDataFields = map[string]bool{
	"product_visibility_score":     true,
	"products_discussed":           true,
	"competitor_presence":          true,
	"training_provided":            true,
	"training_topics":              true,
	"support_materials_required":   true,
	"support_materials_items":      true,
	"support_materials_other_text": true,
	"commercial_outcome":           true,
	"order_value":                  true,
	"overall_satisfaction":         true,
	"follow_up_required":           true,
	"follow_up_notes":              true,
	"follow_up_date":               true,
	"follow_up_assigned_user_id":   true,
	"follow_up_stage":              true,
	"notes":                        true,
	"visit_photos":                 true,
	"signature":                    true,
	"signature_signer_name":        true,
	"sales_data":                   true,
}

// dateFields carry dates that may arrive as bare YYYY-MM-DD strings
var dateFields = map[string]bool{
	"visit_date":         true,
	"planned_visit_date": true,
	"follow_up_date":     true,
	"signature_date":     true,
}

// reservedFields are never writable through a field update
var reservedFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// IsMeaningfulValue reports whether an update value actually carries
// data: nil, empty strings and empty collections do not.
func IsMeaningfulValue(value any) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String() != ""
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return IsMeaningfulValue(rv.Elem().Interface())
	}
	return true
}

// NextStatus computes the status a draft lands in after applying the
// given update. An explicit visit_status in the update wins outright;
// otherwise an appointment advances to draft only when the update puts
// a meaningful value into a visit-data field. Draft and done are never
// left by inference.
func NextStatus(current string, updates FieldUpdate) string {
	if raw, ok := updates["visit_status"]; ok {
		if s, ok := raw.(string); ok && models.IsValidVisitStatus(s) {
			return s
		}
	}

	if current != models.VisitStatusAppointment {
		return current
	}

	for key, value := range updates {
		if appointmentSafeFields[key] {
			continue
		}
		if visitDataFields[key] && IsMeaningfulValue(value) {
			return models.VisitStatusDraft
		}
	}
	return models.VisitStatusAppointment
}

// VisitLifecycle owns the in-memory draft of a single visit record for
// the duration of an editing session. It applies partial updates,
// derives status transitions, creates the durable record exactly once
// and schedules debounced autosaves. Construct with NewVisitLifecycle
// and dispose with Close.
type VisitLifecycle struct {
	store       VisitStore
	clock       Clock
	createDelay time.Duration
	saveDelay   time.Duration
	onError     func(error)
	actorID     *string

	mu              sync.Mutex
	draft           models.ShopVisit
	snapshot        *models.ShopVisit // last persisted copy, nil until created/loaded
	state           flowState
	createAttempted bool
	pendingTimer    Timer
	lastSavedAt     time.Time
	closed          bool
}

// LifecycleOptions tunes a VisitLifecycle. The zero value selects the
// system clock and the default debounce windows.
type LifecycleOptions struct {
	Clock       Clock
	CreateDelay time.Duration
	SaveDelay   time.Duration
	Actor       *models.User
	// OnError receives errors from background creation attempts so the
	// caller can surface them. Autosave failures are logged only.
	OnError func(error)
}

// NewVisitLifecycle returns a controller holding a fresh draft with
// form defaults applied (status draft, visit date today).
func NewVisitLifecycle(store VisitStore, opts LifecycleOptions) *VisitLifecycle {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	createDelay := opts.CreateDelay
	if createDelay == 0 {
		createDelay = DefaultCreateDelay
	}
	saveDelay := opts.SaveDelay
	if saveDelay == 0 {
		saveDelay = DefaultSaveDelay
	}

	l := &VisitLifecycle{
		store:       store,
		clock:       clock,
		createDelay: createDelay,
		saveDelay:   saveDelay,
		onError:     opts.OnError,
	}
	if opts.Actor != nil {
		id := opts.Actor.ID
		l.actorID = &id
		l.draft.CreatedByID = &id
	}

	l.draft.VisitStatus = models.VisitStatusDraft
	l.draft.VisitDate = DateOnly(clock.Now())
	l.draft.VisitDuration = 60
	l.draft.OverallSatisfaction = 5
	score := 50
	l.draft.ProductVisibilityScore = &score
	l.draft.SyncLegacyDraftFlag()
	return l
}

// StartWithCustomer pre-fills the draft from an existing customer and
// arms the debounced creation of the durable record.
func (l *VisitLifecycle) StartWithCustomer(customerID string) error {
	customer, err := l.store.GetCustomer(customerID)
	if err != nil {
		return fmt.Errorf("customer not found: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLifecycleClosed
	}

	l.draft.CustomerID = customer.ID
	l.draft.ShopName = customer.ShopName
	l.draft.ShopType = customer.ShopType
	l.draft.ShopAddress = customer.ShopAddress
	l.draft.Zipcode = customer.Zipcode
	l.draft.City = customer.City
	l.draft.County = customer.County
	l.draft.ContactPerson = customer.ContactPerson
	l.draft.ContactPhone = customer.ContactPhone
	l.draft.ContactEmail = customer.ContactEmail
	l.draft.JobTitle = customer.JobTitle
	l.draft.ShopTimings = customer.ShopTimings

	l.scheduleCreate(l.createDelay)
	return nil
}

// Load resumes editing an existing visit record
func (l *VisitLifecycle) Load(id string) error {
	visit, err := l.store.GetVisit(id)
	if err != nil {
		return fmt.Errorf("visit not found: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLifecycleClosed
	}

	l.draft = *visit
	snap := l.cloneDraft()
	l.snapshot = &snap
	l.createAttempted = true
	if l.draft.IsDone() {
		l.state = flowDone
	} else {
		l.state = flowIdle
	}
	return nil
}

// ApplyUpdate merges a partial update into the draft, computes the
// resulting status and arms the persistence machinery. The call itself
// is synchronous; all writes happen asynchronously behind debounce
// timers. Updates on a submitted visit are a no-op.
func (l *VisitLifecycle) ApplyUpdate(updates FieldUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLifecycleClosed
	}
	if l.draft.IsDone() {
		return nil
	}
	if len(updates) == 0 {
		return nil
	}

	prevStatus := l.draft.VisitStatus
	newStatus := NextStatus(prevStatus, updates)
	// Once the record exists the status only moves forward. An unsaved
	// fresh draft may still be turned into an appointment, since that is
	// how appointments are scheduled from the form in the first place.
	if models.StatusRank(newStatus) < models.StatusRank(prevStatus) && l.draft.ID != "" {
		newStatus = prevStatus
	}
	_, explicitStatus := updates["visit_status"]
	_, hasVisitDate := updates["visit_date"]
	_, hasPlannedDate := updates["planned_visit_date"]

	normalized, err := normalizeUpdates(updates)
	if err != nil {
		return err
	}
	if err := applyFieldUpdates(&l.draft, normalized); err != nil {
		return err
	}
	l.draft.VisitStatus = newStatus

	// An appointment has no independent actual-visit date yet: keep
	// visit_date mirroring planned_visit_date until the status moves on.
	if newStatus == models.VisitStatusAppointment && l.draft.PlannedVisitDate != nil {
		if hasPlannedDate || !hasVisitDate {
			l.draft.VisitDate = DateOnly(*l.draft.PlannedVisitDate)
		}
	}

	// Jumping from appointment to draft must not leave the required
	// visit_date empty: backfill it from the planned date.
	if prevStatus == models.VisitStatusAppointment && newStatus == models.VisitStatusDraft &&
		!hasVisitDate && l.draft.PlannedVisitDate != nil {
		l.draft.VisitDate = DateOnly(*l.draft.PlannedVisitDate)
	}

	l.draft.SyncLegacyDraftFlag()

	// An explicit move to appointment is persisted in full right away
	// so the appointment survives the user closing the session.
	if explicitStatus && newStatus == models.VisitStatusAppointment {
		if l.draft.ID != "" {
			l.scheduleSave(0)
		} else {
			l.scheduleCreate(0)
		}
		return nil
	}

	// Status advanced from appointment to draft: save the change
	// immediately rather than waiting out the autosave window.
	if prevStatus == models.VisitStatusAppointment && newStatus == models.VisitStatusDraft && l.draft.ID != "" {
		l.scheduleSave(0)
		return nil
	}

	l.scheduleCreate(l.createDelay)
	l.scheduleSave(l.saveDelay)
	return nil
}

// AdvanceSection gates forward navigation out of the given section:
// it converts a lingering appointment into a working draft when the
// rep moves past the shop-info section, makes sure the durable record
// exists, and refuses to advance while required fields are missing.
// Backward navigation is never gated.
func (l *VisitLifecycle) AdvanceSection(section int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLifecycleClosed
	}

	if section == SectionShopInfo && l.draft.IsAppointment() {
		if l.draft.PlannedVisitDate != nil {
			l.draft.VisitDate = DateOnly(*l.draft.PlannedVisitDate)
		}
		l.draft.VisitStatus = models.VisitStatusDraft
		l.draft.SyncLegacyDraftFlag()
		if l.draft.ID != "" {
			l.scheduleSave(0)
		}
	}

	if err := l.ensureCreatedLocked(); err != nil {
		return err
	}

	if missing := MissingFieldsForSection(section, &l.draft); len(missing) > 0 {
		return fmt.Errorf("please complete the following required fields: %s", JoinFieldLabels(missing))
	}

	if section == SectionShopInfo && !l.draft.IsAppointment() {
		if DateOnly(l.draft.VisitDate).After(DateOnly(l.clock.Now())) {
			return ErrFutureVisitDate
		}
	}
	return nil
}

// Draft returns a copy of the current in-memory draft
func (l *VisitLifecycle) Draft() models.ShopVisit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cloneDraft()
}

// LastSavedAt reports when the draft last reached the store, for UI
// feedback only. Zero until the first successful write.
func (l *VisitLifecycle) LastSavedAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSavedAt
}

// Close cancels outstanding timers and disposes the controller. No
// further writes are issued after Close returns.
func (l *VisitLifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelPendingTimer()
	l.closed = true
}

// normalizeUpdates returns a copy of the update set with reserved keys
// dropped, bare date strings parsed, and free text sanitized.
func normalizeUpdates(updates FieldUpdate) (FieldUpdate, error) {
	normalized := make(FieldUpdate, len(updates))
	for key, value := range updates {
		if reservedFields[key] {
			continue
		}
		if dateFields[key] {
			if s, ok := value.(string); ok {
				if s == "" {
					normalized[key] = nil
					continue
				}
				parsed, err := ParseDateTime(s)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", key, err)
				}
				normalized[key] = parsed
				continue
			}
		}
		if IsFreeTextField(key) {
			if s, ok := value.(string); ok {
				normalized[key] = SanitizeText(s)
				continue
			}
		}
		normalized[key] = value
	}
	return normalized, nil
}

// applyFieldUpdates merges the update map into the draft through its
// JSON field tags, so the wire names stay the single source of truth.
func applyFieldUpdates(v *models.ShopVisit, updates FieldUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	payload, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("invalid field update: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid field update: %w", err)
	}
	return nil
}
