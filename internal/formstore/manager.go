package formstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"

	"rental-admin-console/internal/models"
	"rental-admin-console/internal/session"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("form session not found")

// Manager owns the live stores and rehydrates persisted sessions on demand.
type Manager struct {
	deps   Deps
	logger *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Manager{deps: deps, logger: deps.Logger, stores: make(map[string]*Store)}
}

// Create starts a session for a new listing with a fresh draft id.
func (m *Manager) Create(ctx context.Context) (*Store, error) {
	return m.start(ctx, models.NewFormState(uuid.NewString()))
}

// CreateForVehicle starts a session pre-filled from an existing vehicle.
// Uploads are attributed to the vehicle id and submit updates it.
func (m *Manager) CreateForVehicle(ctx context.Context, vehicleID string) (*Store, error) {
	raw, err := m.deps.Backend.VehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	state, err := stateFromVehicle(vehicleID, raw)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, state)
}

func (m *Manager) start(ctx context.Context, state models.FormState) (*Store, error) {
	id := uuid.NewString()
	if err := m.deps.Sessions.Save(ctx, id, state); err != nil {
		return nil, fmt.Errorf("failed to persist new form session: %w", err)
	}
	s := newStore(id, state, m.deps)

	m.mu.Lock()
	m.stores[id] = s
	m.mu.Unlock()

	m.logger.Info("form session created",
		zap.String("sessionID", id), zap.String("draftID", state.VehicleData.ID),
		zap.String("editingVehicleID", state.EditingVehicleID))
	return s, nil
}

// Open returns the live store for id, rehydrating it from persistence if needed.
func (m *Manager) Open(ctx context.Context, id string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s, nil
	}
	state, err := m.deps.Sessions.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s := newStore(id, *state, m.deps)
	m.stores[id] = s
	m.logger.Info("form session rehydrated", zap.String("sessionID", id), zap.String("draftID", state.VehicleData.ID))
	return s, nil
}

// Close forgets the session and drops its persisted state. Uploaded objects are left alone.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.stores[id]
	delete(m.stores, id)
	m.mu.Unlock()
	if ok {
		s.markClosed()
	}

	if err := m.deps.Sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete form session: %w", err)
	}
	m.logger.Info("form session closed", zap.String("sessionID", id))
	return nil
}

// storedVehicle is the subset of a backend vehicle record the form can edit.
type storedVehicle struct {
	models.VehicleDraft
	Coordinates    []float64 `json:"coordinates"`
	VehicleImages  []string  `json:"vehicleImages"`
	AdminDocuments []string  `json:"adminDocuments"`
}

var draftStringFields = stringFieldNames(reflect.TypeOf(models.VehicleDraft{}))

func stringFieldNames(t reflect.Type) map[string]bool {
	out := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.String {
			continue
		}
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" {
			out[name] = true
		}
	}
	return out
}

func stateFromVehicle(vehicleID string, raw json.RawMessage) (models.FormState, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.FormState{}, fmt.Errorf("failed to decode vehicle %s: %w", vehicleID, err)
	}
	// Some responses wrap the record.
	if inner, ok := fields["vehicle"].(map[string]any); ok {
		fields = inner
	}
	// The backend may return numbers and booleans where the form keeps text.
	for k, v := range fields {
		switch v.(type) {
		case float64, bool:
			if draftStringFields[k] {
				fields[k] = cast.ToString(v)
			}
		}
	}
	normalized, err := json.Marshal(fields)
	if err != nil {
		return models.FormState{}, err
	}

	var v storedVehicle
	if err := json.Unmarshal(normalized, &v); err != nil {
		return models.FormState{}, fmt.Errorf("failed to decode vehicle %s: %w", vehicleID, err)
	}

	state := models.NewFormState(vehicleID)
	d := v.VehicleDraft
	d.ID = vehicleID
	if len(v.Coordinates) == 2 {
		d.Location = &models.GeoPoint{Lng: v.Coordinates[0], Lat: v.Coordinates[1]}
	}
	if d.VehicleImageKeys == nil {
		d.VehicleImageKeys = v.VehicleImages
	}
	if d.AdminDocumentKeys == nil {
		d.AdminDocumentKeys = v.AdminDocuments
	}
	// Entries that are not dates are dropped rather than blocking the edit.
	d.UnavailableDates, _ = models.CanonicalDates(d.UnavailableDates)
	normalizeDraft(&d)

	// Stored keys carry no slot names; they fill the slots in form order.
	for i, key := range d.VehicleImageKeys {
		if i < len(models.RequiredPhotoSlots) {
			state.UploadedPhotos.Slots[models.RequiredPhotoSlots[i]] = models.PhotoEntry{StorageKey: key}
		} else {
			state.UploadedPhotos.Additional = append(state.UploadedPhotos.Additional, models.PhotoEntry{StorageKey: key})
		}
	}
	docSlots := append(append([]models.DocumentSlot{}, models.RequiredDocumentSlots...), models.DocumentPowerOfAttorney)
	for i, key := range d.AdminDocumentKeys {
		if i >= len(docSlots) {
			break
		}
		state.UploadedDocuments[docSlots[i]] = models.DocumentEntry{Filename: path.Base(key), StorageKey: key}
	}

	state.VehicleData = d
	state.EditingVehicleID = vehicleID
	return state, nil
}
