package formstore

import (
	"context"
	"encoding/json"
	"testing"

	"rental-admin-console/internal/models"
	"rental-admin-console/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRehydrates(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore()
	deps := Deps{Sessions: sessions, Uploader: &fakeUploader{}, Backend: &fakeBackend{}}

	first := NewManager(deps)
	s, err := first.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpdateDraft(ctx, raw(t, map[string]any{"make": "Suzuki"})))
	_, err = s.UploadPhoto(ctx, models.PhotoFront, photo("front.jpg"))
	require.NoError(t, err)

	// A restarted process sees the same session.
	second := NewManager(deps)
	reopened, err := second.Open(ctx, s.SessionID())
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), reopened.Snapshot())

	same, err := second.Open(ctx, s.SessionID())
	require.NoError(t, err)
	assert.Same(t, reopened, same)
}

func TestManagerClose(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Deps{Sessions: session.NewMemoryStore(), Uploader: &fakeUploader{}, Backend: &fakeBackend{}})

	s, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close(ctx, s.SessionID()))

	_, err = m.Open(ctx, s.SessionID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateForVehicle(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{vehicle: json.RawMessage(`{"vehicle":{
		"id":"veh-9","make":"Toyota","model":"Hilux","year":2018,"seats":5,
		"serviceType":"with-driver","isPostedByOwner":true,"instantBooking":true,
		"coordinates":[38.7,9.0],
		"vehicleImages":["k1","k2","k3","k4","k5","k6","k7"],
		"adminDocuments":["docs/libre.pdf","docs/license.pdf","docs/insurance.pdf"]
	}}`)}
	m := NewManager(Deps{Sessions: session.NewMemoryStore(), Uploader: &fakeUploader{}, Backend: backend})

	s, err := m.CreateForVehicle(ctx, "veh-9")
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "veh-9", snap.EditingVehicleID)
	assert.Equal(t, "veh-9", snap.VehicleData.ID)
	assert.Equal(t, "2018", snap.VehicleData.Year)
	assert.Equal(t, "5", snap.VehicleData.Seats)
	assert.Equal(t, models.PostedByOwner, snap.VehicleData.IsPostedByOwner)
	assert.True(t, snap.VehicleData.InstantBooking)
	assert.Equal(t, &models.GeoPoint{Lat: 9.0, Lng: 38.7}, snap.VehicleData.Location)
	assert.Equal(t, "k1", snap.UploadedPhotos.Slots[models.PhotoFront].StorageKey)
	assert.Equal(t, "k6", snap.UploadedPhotos.Slots[models.PhotoInteriorBack].StorageKey)
	assert.Len(t, snap.UploadedPhotos.Additional, 1)
	assert.Equal(t, "insurance.pdf", snap.UploadedDocuments[models.DocumentInsurance].Filename)

	fillSubmittable(t, s)
	_, err = s.SubmitListing(ctx)
	require.NoError(t, err)
	assert.Empty(t, backend.created)
	assert.Contains(t, backend.updated, "veh-9")
}
