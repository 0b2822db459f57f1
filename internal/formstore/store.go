// Package formstore holds the in-progress listing of one form session.
//
// Every mutation builds the next state from a copy, persists it, and only
// then replaces the live state, so a failed write never leaves the session
// half-updated. Uploads run outside the lock; only their commit is serialized.
package formstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/listing"
	"rental-admin-console/internal/models"
	"rental-admin-console/internal/session"
	"rental-admin-console/internal/upload"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Uploader sends one file to storage on behalf of a draft.
type Uploader interface {
	UploadPhoto(ctx context.Context, draftID string, slot models.PhotoSlot, f upload.File) (*upload.PhotoResult, error)
	UploadDocument(ctx context.Context, draftID string, slot models.DocumentSlot, f upload.File) (*upload.DocumentResult, error)
}

// Backend is the part of the marketplace API the store talks to.
type Backend interface {
	CreateListing(ctx context.Context, req *models.ListingRequest) (json.RawMessage, error)
	UpdateListing(ctx context.Context, vehicleID string, req *models.ListingRequest) (json.RawMessage, error)
	VehicleByID(ctx context.Context, id string) (json.RawMessage, error)
}

// Remover deletes a stored object. It is optional; without one, replaced
// and deleted keys stay in the bucket.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Deps are shared by every store a Manager creates.
type Deps struct {
	Sessions session.Store
	Uploader Uploader
	Backend  Backend
	Remover  Remover
	Logger   *zap.Logger
}

type Store struct {
	sessionID string
	deps      Deps
	logger    *zap.Logger

	mu     sync.Mutex
	state  models.FormState
	closed bool

	subMu   sync.Mutex
	subs    map[int]func(models.FormState)
	nextSub int
}

func newStore(sessionID string, state models.FormState, deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessionID: sessionID,
		deps:      deps,
		logger:    logger.With(zap.String("sessionID", sessionID)),
		state:     state,
		subs:      make(map[int]func(models.FormState)),
	}
}

func (s *Store) SessionID() string { return s.sessionID }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// DraftID is the id every upload of this session is attributed to.
func (s *Store) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.VehicleData.ID
}

// Subscribe registers fn to receive a snapshot after every committed change.
// The returned func removes it.
func (s *Store) Subscribe(fn func(models.FormState)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(state models.FormState) {
	s.subMu.Lock()
	fns := make([]func(models.FormState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
}

// commit applies mutate to a copy of the state and persists it before swapping it in.
func (s *Store) commit(ctx context.Context, mutate func(*models.FormState) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSessionClosed
	}
	next := s.state.Clone()
	if err := mutate(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.deps.Sessions.Save(ctx, s.sessionID, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist form session: %w", err)
	}
	s.state = next
	s.mu.Unlock()

	s.notify(next)
	return nil
}

// markClosed makes every later commit fail, so work still in flight cannot
// persist the session again after it was closed.
func (s *Store) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

var (
	// errStaleDraft rejects an upload whose draft was reset while it was in flight.
	errStaleDraft    = errors.New("draft was reset during upload")
	errSessionClosed = errors.New("form session was closed")
)

// Fields the store manages itself; UpdateDraft ignores them.
var managedFields = map[string]bool{
	"id":                true,
	"vehicleImageKeys":  true,
	"adminDocumentKeys": true,
}

var draftFields = jsonFieldNames(reflect.TypeOf(models.VehicleDraft{}))

func jsonFieldNames(t reflect.Type) map[string]bool {
	out := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			out[name] = true
		}
	}
	return out
}

// UpdateDraft shallow-merges partial into the draft. Keys absent from partial
// keep their values. The draft id and the upload key lists cannot be changed here.
// Unavailable dates are stored as a sorted set of UTC days.
func (s *Store) UpdateDraft(ctx context.Context, partial map[string]json.RawMessage) error {
	verr := apperr.NewValidationError("draft")
	overlay := make(map[string]json.RawMessage, len(partial))
	for k, v := range partial {
		switch {
		case managedFields[k]:
		case !draftFields[k]:
			verr.Add(k, "unknown field")
		default:
			overlay[k] = v
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	raw, err := json.Marshal(overlay)
	if err != nil {
		return fmt.Errorf("failed to encode draft update: %w", err)
	}

	return s.commit(ctx, func(next *models.FormState) error {
		d := &next.VehicleData
		if err := json.Unmarshal(raw, d); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				verr.Add(typeErr.Field, "must be "+typeErr.Type.String())
				return verr
			}
			return fmt.Errorf("failed to apply draft update: %w", err)
		}
		if _, ok := overlay["unavailableDates"]; ok {
			dates, bad := models.CanonicalDates(d.UnavailableDates)
			for i, err := range bad {
				verr.Add(fmt.Sprintf("unavailableDates[%d]", i), err.Error())
			}
			if err := verr.OrNil(); err != nil {
				return err
			}
			d.UnavailableDates = dates
		}
		normalizeDraft(d)
		return nil
	})
}

// EditDraft applies a typed change to the draft, for callers that derive fields themselves.
func (s *Store) EditDraft(ctx context.Context, edit func(d *models.VehicleDraft)) error {
	return s.commit(ctx, func(next *models.FormState) error {
		id := next.VehicleData.ID
		edit(&next.VehicleData)
		next.VehicleData.ID = id
		normalizeDraft(&next.VehicleData)
		return nil
	})
}

func normalizeDraft(d *models.VehicleDraft) {
	for _, l := range []*[]string{&d.Features, &d.UnavailableDates, &d.DriverWorkingDays, &d.VehicleImageKeys, &d.AdminDocumentKeys} {
		if *l == nil {
			*l = []string{}
		}
	}
}

// SubmitListing builds the request and sends it. The draft is never modified,
// whatever the outcome; callers reset the store after a success.
func (s *Store) SubmitListing(ctx context.Context) (json.RawMessage, error) {
	snap := s.Snapshot()
	req, err := listing.Build(snap.VehicleData)
	if err != nil {
		return nil, err
	}

	var resp json.RawMessage
	if snap.EditingVehicleID != "" {
		resp, err = s.deps.Backend.UpdateListing(ctx, snap.EditingVehicleID, req)
	} else {
		resp, err = s.deps.Backend.CreateListing(ctx, req)
	}
	if err != nil {
		s.logger.Error("listing submission failed", zap.String("draftID", req.ID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("listing submitted", zap.String("draftID", req.ID), zap.Bool("update", snap.EditingVehicleID != ""))
	return resp, nil
}

// Reset empties all containers and assigns a fresh draft id.
func (s *Store) Reset(ctx context.Context) error {
	return s.commit(ctx, func(next *models.FormState) error {
		*next = models.NewFormState(uuid.NewString())
		return nil
	})
}

// removeRemote deletes key from storage when a Remover is configured. Failures are only logged.
func (s *Store) removeRemote(ctx context.Context, key string) {
	if s.deps.Remover == nil || key == "" {
		return
	}
	if err := s.deps.Remover.Remove(ctx, key); err != nil {
		s.logger.Warn("stale object left in storage", zap.String("key", key), zap.Error(err))
	}
}

// replaceKey swaps from for to in place. When from is absent to is appended.
func replaceKey(keys []string, from, to string) []string {
	if from != "" {
		for i, k := range keys {
			if k == from {
				keys[i] = to
				return keys
			}
		}
	}
	return append(keys, to)
}

func removeKey(keys []string, key string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
