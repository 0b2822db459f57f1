package session

import (
	"context"
	"testing"

	"rental-admin-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	state := models.NewFormState("draft-1")
	state.VehicleData.Make = "Toyota"
	state.VehicleData.VehicleImageKeys = []string{"k1"}
	state.UploadedPhotos.Slots[models.PhotoFront] = models.PhotoEntry{Preview: "data:image/jpeg;base64,AA==", StorageKey: "k1"}
	state.UploadedDocuments[models.DocumentLibre] = models.DocumentEntry{Filename: "libre.pdf", SizeBytes: 10, StorageKey: "d1"}

	require.NoError(t, s.Save(ctx, "sess", state))

	got, err := s.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	require.NoError(t, s.Delete(ctx, "sess"))
	_, err = s.Load(ctx, "sess")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeFillsEmptyContainers(t *testing.T) {
	got, err := decode([]byte(`{"vehicleData":{"id":"x"}}`))
	require.NoError(t, err)
	assert.NotNil(t, got.UploadedPhotos.Slots)
	assert.NotNil(t, got.UploadedDocuments)
	assert.Equal(t, "x", got.VehicleData.ID)
}
