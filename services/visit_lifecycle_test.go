package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"shop_visit_app_go/models"
)

// fakeTimer is an armed callback that only runs when the test fires it
type fakeTimer struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) fire() bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	t.stopped = true
	fn := t.fn
	t.mu.Unlock()
	fn()
	return true
}

// fakeClock freezes Now and records armed timers so tests control
// exactly when debounce windows close
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	timer     *fakeTimer
	armed     int
	lastDelay time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	t := &fakeTimer{fn: fn}
	c.timer = t
	c.armed++
	c.lastDelay = d
	c.mu.Unlock()
	return t
}

// Fire runs the most recently armed timer, mimicking its debounce
// window closing. Returns false if no live timer was pending.
func (c *fakeClock) Fire() bool {
	c.mu.Lock()
	t := c.timer
	c.mu.Unlock()
	if t == nil {
		return false
	}
	return t.fire()
}

// fakeVisitStore is an in-memory VisitStore that counts writes and can
// be told to fail them
type fakeVisitStore struct {
	mu          sync.Mutex
	createCalls int
	updateCalls int
	createErr   error
	updateErr   error
	// onCreate and onUpdate run once, before the next write takes
	// effect. Lets a test inject work that overlaps an in-flight write.
	onCreate  func()
	onUpdate  func(id string)
	visits    map[string]models.ShopVisit
	customers map[string]models.Customer
}

func newFakeVisitStore() *fakeVisitStore {
	return &fakeVisitStore{
		visits:    make(map[string]models.ShopVisit),
		customers: make(map[string]models.Customer),
	}
}

func (s *fakeVisitStore) CreateVisit(v *models.ShopVisit) error {
	s.mu.Lock()
	hook := s.onCreate
	s.onCreate = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	s.visits[v.ID] = *v
	return nil
}

func (s *fakeVisitStore) GetVisit(id string) (*models.ShopVisit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visits[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &v, nil
}

func (s *fakeVisitStore) UpdateVisit(id string, v *models.ShopVisit) error {
	s.mu.Lock()
	hook := s.onUpdate
	s.onUpdate = nil
	s.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	s.visits[id] = *v
	return nil
}

func (s *fakeVisitStore) DeleteVisit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visits, id)
	return nil
}

func (s *fakeVisitStore) GetCustomer(id string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &c, nil
}

func (s *fakeVisitStore) counts() (creates, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls, s.updateCalls
}

func (s *fakeVisitStore) stored(id string) models.ShopVisit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[id]
}

func testCustomer() models.Customer {
	return models.Customer{
		ID:            "cust-1",
		ShopName:      "Corner Stores Ltd",
		ShopType:      "convenience",
		ShopAddress:   "14 Main Street",
		City:          "Cork",
		County:        "Cork",
		ContactPerson: "Pat Murphy",
		ContactPhone:  "+353 21 555 0101",
		ContactEmail:  "pat@cornerstores.ie",
	}
}

func newTestLifecycle(t *testing.T) (*VisitLifecycle, *fakeVisitStore, *fakeClock) {
	t.Helper()
	store := newFakeVisitStore()
	store.customers["cust-1"] = testCustomer()
	clock := newFakeClock()
	l := NewVisitLifecycle(store, LifecycleOptions{Clock: clock})
	return l, store, clock
}

func TestIsMeaningfulValue(t *testing.T) {
	present := "yes"
	var absent *string

	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"string", "high", true},
		{"empty slice", []string{}, false},
		{"slice", []string{"a"}, true},
		{"empty map", map[string]any{}, false},
		{"map", map[string]any{"k": 1}, true},
		{"nil pointer", absent, false},
		{"pointer to value", &present, true},
		{"zero number", 0, true},
		{"number", 42.5, true},
		{"false bool", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsMeaningfulValue(tc.value))
		})
	}
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name    string
		current string
		updates FieldUpdate
		want    string
	}{
		{"explicit status wins", models.VisitStatusDraft, FieldUpdate{"visit_status": "done"}, models.VisitStatusDone},
		{"invalid explicit status ignored", models.VisitStatusDraft, FieldUpdate{"visit_status": "archived"}, models.VisitStatusDraft},
		{"appointment safe field keeps appointment", models.VisitStatusAppointment, FieldUpdate{"contact_phone": "555"}, models.VisitStatusAppointment},
		{"visit data advances appointment", models.VisitStatusAppointment, FieldUpdate{"notes": "stock discussed"}, models.VisitStatusDraft},
		{"zero score still advances", models.VisitStatusAppointment, FieldUpdate{"product_visibility_score": 0}, models.VisitStatusDraft},
		{"empty visit data keeps appointment", models.VisitStatusAppointment, FieldUpdate{"notes": ""}, models.VisitStatusAppointment},
		{"nil visit data keeps appointment", models.VisitStatusAppointment, FieldUpdate{"signature": nil}, models.VisitStatusAppointment},
		{"draft never advances by inference", models.VisitStatusDraft, FieldUpdate{"notes": "x"}, models.VisitStatusDraft},
		{"unknown field ignored", models.VisitStatusAppointment, FieldUpdate{"favourite_colour": "green"}, models.VisitStatusAppointment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextStatus(tc.current, tc.updates))
		})
	}
}

func TestDebouncedCreation(t *testing.T) {
	t.Run("rapid edits create exactly once", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.Equal(t, DefaultCreateDelay, clock.lastDelay)

		for i := 0; i < 10; i++ {
			assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_purpose": "regular_visit"}))
		}
		creates, _ := store.counts()
		assert.Equal(t, 0, creates, "nothing persisted before the window closes")

		assert.True(t, clock.Fire())
		creates, _ = store.counts()
		assert.Equal(t, 1, creates)

		draft := l.Draft()
		assert.NotEmpty(t, draft.ID)
		assert.Equal(t, "Corner Stores Ltd", draft.ShopName)
		assert.Equal(t, models.VisitStatusDraft, draft.VisitStatus)
		assert.True(t, draft.IsDraft)
		assert.NotNil(t, draft.DraftSavedAt)
		assert.Equal(t, clock.Now(), l.LastSavedAt())

		// The consumed timer never creates again
		assert.False(t, clock.Fire())
		for i := 0; i < 5; i++ {
			assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "follow the stock"}))
		}
		clock.Fire()
		creates, updates := store.counts()
		assert.Equal(t, 1, creates)
		assert.Equal(t, 1, updates)
	})

	t.Run("no customer means no creation", func(t *testing.T) {
		store := newFakeVisitStore()
		clock := newFakeClock()
		l := NewVisitLifecycle(store, LifecycleOptions{Clock: clock})

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "walk-in"}))
		clock.Fire()
		creates, _ := store.counts()
		assert.Equal(t, 0, creates)
		assert.ErrorIs(t, l.EnsureCreated(), ErrCustomerRequired)
	})

	t.Run("creation failure allows retry", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		var bgErrs []error
		l.onError = func(err error) { bgErrs = append(bgErrs, err) }

		store.createErr = errors.New("database is locked")
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.True(t, clock.Fire())

		creates, _ := store.counts()
		assert.Equal(t, 1, creates)
		assert.Empty(t, l.Draft().ID)
		if assert.Len(t, bgErrs, 1) {
			assert.Contains(t, bgErrs[0].Error(), "could not create visit report draft")
		}

		// The next edit re-arms creation and succeeds
		store.createErr = nil
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_purpose": "regular_visit"}))
		assert.True(t, clock.Fire())
		creates, _ = store.counts()
		assert.Equal(t, 2, creates)
		assert.NotEmpty(t, l.Draft().ID)
	})

	t.Run("edit overlapping the creation is saved afterwards", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		store.onCreate = func() {
			assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "arrived mid-create"}))
		}
		assert.True(t, clock.Fire())

		id := l.Draft().ID
		assert.NotEmpty(t, id)
		assert.Empty(t, store.stored(id).Notes)
		assert.Equal(t, "arrived mid-create", l.Draft().Notes)

		// The overlapping edit re-arms the autosave window
		assert.True(t, clock.Fire())
		_, updates := store.counts()
		assert.Equal(t, 1, updates)
		assert.Equal(t, "arrived mid-create", store.stored(id).Notes)
	})
}

func TestAutosaveDebounce(t *testing.T) {
	created := func(t *testing.T) (*VisitLifecycle, *fakeVisitStore, *fakeClock) {
		t.Helper()
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.True(t, clock.Fire())
		return l, store, clock
	}

	t.Run("burst of edits coalesces into one write", func(t *testing.T) {
		l, store, clock := created(t)

		for i := 0; i < 10; i++ {
			assert.NoError(t, l.ApplyUpdate(FieldUpdate{"overall_satisfaction": i + 1}))
		}
		assert.Equal(t, DefaultSaveDelay, clock.lastDelay)
		_, updates := store.counts()
		assert.Equal(t, 0, updates)

		assert.True(t, clock.Fire())
		_, updates = store.counts()
		assert.Equal(t, 1, updates)
		assert.Equal(t, 10, store.stored(l.Draft().ID).OverallSatisfaction)

		// Clean draft arms nothing further
		assert.False(t, clock.Fire())
	})

	t.Run("failed autosave keeps the diff and retries", func(t *testing.T) {
		l, store, clock := created(t)
		firstSave := l.LastSavedAt()

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "shelf space doubled"}))
		store.updateErr = errors.New("disk I/O error")
		clock.Advance(DefaultSaveDelay)
		assert.True(t, clock.Fire())

		_, updates := store.counts()
		assert.Equal(t, 1, updates)
		assert.Equal(t, firstSave, l.LastSavedAt(), "failed write must not count as saved")

		// The window re-arms on its own because the draft is still dirty
		store.updateErr = nil
		assert.True(t, clock.Fire())
		_, updates = store.counts()
		assert.Equal(t, 2, updates)
		assert.Equal(t, "shelf space doubled", store.stored(l.Draft().ID).Notes)
		assert.True(t, l.LastSavedAt().After(firstSave))
	})

	t.Run("edit overlapping an in-flight write stays dirty", func(t *testing.T) {
		l, store, clock := created(t)

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "first"}))
		store.onUpdate = func(string) {
			assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "second"}))
		}
		assert.True(t, clock.Fire())

		id := l.Draft().ID
		assert.Equal(t, "first", store.stored(id).Notes, "overlapping edit must not ride along uncommitted")
		assert.Equal(t, "second", l.Draft().Notes)

		// The window re-arms on its own: the overlapping edit is still
		// unsaved and must reach the store on the next pass.
		assert.True(t, clock.Fire())
		_, updates := store.counts()
		assert.Equal(t, 2, updates)
		assert.Equal(t, "second", store.stored(id).Notes)

		// Everything is persisted now, so flush has nothing to write
		assert.NoError(t, l.Flush())
		_, updates = store.counts()
		assert.Equal(t, 2, updates)
	})

	t.Run("flush writes immediately and surfaces errors", func(t *testing.T) {
		l, store, clock := created(t)

		// Clean draft: flush is a no-op
		assert.NoError(t, l.Flush())
		_, updates := store.counts()
		assert.Equal(t, 0, updates)

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "promo agreed"}))
		assert.NoError(t, l.Flush())
		_, updates = store.counts()
		assert.Equal(t, 1, updates)
		assert.Equal(t, "promo agreed", store.stored(l.Draft().ID).Notes)

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "promo cancelled"}))
		store.updateErr = errors.New("database is locked")
		err := l.Flush()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save draft")
		_ = clock
	})
}

func TestAppointmentLifecycle(t *testing.T) {
	t.Run("explicit appointment persists immediately", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{
			"visit_status":            "appointment",
			"planned_visit_date":      "2026-09-05",
			"appointment_description": "Quarterly range review",
		}))
		assert.Equal(t, time.Duration(0), clock.lastDelay, "appointments skip the debounce window")
		assert.True(t, clock.Fire())

		creates, _ := store.counts()
		assert.Equal(t, 1, creates)
		draft := l.Draft()
		assert.Equal(t, models.VisitStatusAppointment, draft.VisitStatus)
		if assert.NotNil(t, draft.PlannedVisitDate) {
			assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), *draft.PlannedVisitDate)
		}
		// visit_date mirrors the planned date while still an appointment
		assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), draft.VisitDate)
	})

	t.Run("scheduling edits keep the appointment", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_status": "appointment", "planned_visit_date": "2026-09-05"}))
		assert.True(t, clock.Fire())

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"planned_visit_date": "2026-09-08", "contact_phone": "555-0102"}))
		draft := l.Draft()
		assert.Equal(t, models.VisitStatusAppointment, draft.VisitStatus)
		assert.Equal(t, time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC), draft.VisitDate)
		_ = store
	})

	t.Run("visit data converts appointment to draft", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_status": "appointment", "planned_visit_date": "2026-09-05"}))
		assert.True(t, clock.Fire())

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"product_visibility_score": 0}))
		assert.True(t, clock.Fire(), "conversion saves without waiting out the window")

		draft := l.Draft()
		assert.Equal(t, models.VisitStatusDraft, draft.VisitStatus)
		if assert.NotNil(t, draft.ProductVisibilityScore) {
			assert.Equal(t, 0, *draft.ProductVisibilityScore)
		}
		// The required visit_date is backfilled from the planned date
		assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), draft.VisitDate)
		assert.Equal(t, models.VisitStatusDraft, store.stored(draft.ID).VisitStatus)
	})

	t.Run("persisted status never moves backwards", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.True(t, clock.Fire())

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_status": "appointment"}))
		assert.Equal(t, models.VisitStatusDraft, l.Draft().VisitStatus)
		_ = store
	})

	t.Run("section navigation converts appointment", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{
			"visit_status":       "appointment",
			"planned_visit_date": "2026-08-30",
			"visit_purpose":      "regular_visit",
		}))
		assert.True(t, clock.Fire())

		assert.NoError(t, l.AdvanceSection(SectionShopInfo))
		draft := l.Draft()
		assert.Equal(t, models.VisitStatusDraft, draft.VisitStatus)
		assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), draft.VisitDate)
		_ = store
	})
}

func TestAdvanceSection(t *testing.T) {
	t.Run("missing fields block forward navigation", func(t *testing.T) {
		l, _, _ := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))

		err := l.AdvanceSection(SectionShopInfo)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Visit Purpose")
	})

	t.Run("navigation creates the record synchronously", func(t *testing.T) {
		l, store, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_purpose": "regular_visit"}))

		assert.NoError(t, l.AdvanceSection(SectionShopInfo))
		creates, _ := store.counts()
		assert.Equal(t, 1, creates)
		assert.NotEmpty(t, l.Draft().ID)

		// The debounced creation timer is dead afterwards
		assert.False(t, clock.Fire())
		creates, _ = store.counts()
		assert.Equal(t, 1, creates)
	})

	t.Run("future visit date is rejected", func(t *testing.T) {
		l, _, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{
			"visit_purpose": "regular_visit",
			"visit_date":    "2026-09-15",
		}))
		assert.ErrorIs(t, l.AdvanceSection(SectionShopInfo), ErrFutureVisitDate)

		// Today is fine
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"visit_date": clock.Now().Format("2006-01-02")}))
		assert.NoError(t, l.AdvanceSection(SectionShopInfo))
	})

	t.Run("conditional follow-up notes", func(t *testing.T) {
		l, _, _ := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{
			"visit_purpose":        "regular_visit",
			"commercial_outcome":   "new_order",
			"overall_satisfaction": 8,
			"follow_up_required":   true,
		}))

		err := l.AdvanceSection(SectionCommercial)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Follow-up Notes")

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"follow_up_notes": "send new price list"}))
		assert.NoError(t, l.AdvanceSection(SectionCommercial))
	})
}

func TestFieldUpdateNormalization(t *testing.T) {
	t.Run("reserved fields are dropped", func(t *testing.T) {
		l, _, clock := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.True(t, clock.Fire())
		id := l.Draft().ID

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"id": "forged-id", "notes": "x"}))
		assert.Equal(t, id, l.Draft().ID)
	})

	t.Run("free text is sanitized", func(t *testing.T) {
		l, _, _ := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "  <script>alert(1)</script>good talk  "}))
		assert.Equal(t, "good talk", l.Draft().Notes)
	})

	t.Run("bad date strings are rejected", func(t *testing.T) {
		l, _, _ := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		err := l.ApplyUpdate(FieldUpdate{"visit_date": "31/08/2026"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "visit_date")
	})

	t.Run("empty date string clears the field", func(t *testing.T) {
		l, _, _ := newTestLifecycle(t)
		assert.NoError(t, l.StartWithCustomer("cust-1"))
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"follow_up_date": "2026-09-10"}))
		assert.NotNil(t, l.Draft().FollowUpDate)
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"follow_up_date": ""}))
		assert.Nil(t, l.Draft().FollowUpDate)
	})
}

func TestLoadExistingVisit(t *testing.T) {
	store := newFakeVisitStore()
	store.customers["cust-1"] = testCustomer()
	clock := newFakeClock()

	seed := models.ShopVisit{
		ID:          "visit-1",
		CustomerID:  "cust-1",
		ShopName:    "Corner Stores Ltd",
		ShopType:    "convenience",
		VisitStatus: models.VisitStatusDraft,
		VisitDate:   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		IsDraft:     true,
	}
	store.visits[seed.ID] = seed

	t.Run("loaded draft starts clean", func(t *testing.T) {
		l := NewVisitLifecycle(store, LifecycleOptions{Clock: clock})
		assert.NoError(t, l.Load("visit-1"))
		assert.NoError(t, l.Flush())
		_, updates := store.counts()
		assert.Equal(t, 0, updates, "clean load must not write")

		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "restocked"}))
		assert.NoError(t, l.Flush())
		_, updates = store.counts()
		assert.Equal(t, 1, updates)
	})

	t.Run("submitted visit is read only", func(t *testing.T) {
		done := seed
		done.ID = "visit-2"
		done.VisitStatus = models.VisitStatusDone
		done.IsDraft = false
		store.visits[done.ID] = done

		l := NewVisitLifecycle(store, LifecycleOptions{Clock: clock})
		assert.NoError(t, l.Load("visit-2"))
		assert.False(t, l.Checklist().NotSubmitted)

		before := l.Draft()
		assert.NoError(t, l.ApplyUpdate(FieldUpdate{"notes": "too late"}))
		assert.Equal(t, before.Notes, l.Draft().Notes)
		assert.NoError(t, l.Flush())

		_, err := l.Submit()
		assert.ErrorIs(t, err, ErrVisitLocked)
	})

	t.Run("unknown visit", func(t *testing.T) {
		l := NewVisitLifecycle(store, LifecycleOptions{Clock: clock})
		assert.Error(t, l.Load("no-such-visit"))
	})
}

func TestClose(t *testing.T) {
	l, store, clock := newTestLifecycle(t)
	assert.NoError(t, l.StartWithCustomer("cust-1"))
	l.Close()

	assert.False(t, clock.Fire(), "pending timers are cancelled")
	creates, _ := store.counts()
	assert.Equal(t, 0, creates)

	assert.ErrorIs(t, l.ApplyUpdate(FieldUpdate{"notes": "x"}), ErrLifecycleClosed)
	assert.ErrorIs(t, l.Flush(), ErrLifecycleClosed)
	assert.ErrorIs(t, l.AdvanceSection(SectionShopInfo), ErrLifecycleClosed)
	_, err := l.Submit()
	assert.ErrorIs(t, err, ErrLifecycleClosed)
}
