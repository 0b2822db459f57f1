package formstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"
	"rental-admin-console/internal/session"
	"rental-admin-console/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu   sync.Mutex
	n    int
	err  error
	seen []string
}

func (f *fakeUploader) next(draftID, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	f.seen = append(f.seen, draftID)
	return fmt.Sprintf("vehicles/%s/%d-%s", draftID, f.n, name)
}

func (f *fakeUploader) UploadPhoto(ctx context.Context, draftID string, slot models.PhotoSlot, file upload.File) (*upload.PhotoResult, error) {
	if f.err != nil {
		return nil, &apperr.UploadError{Slot: string(slot), Stage: apperr.StagePut, Err: f.err}
	}
	return &upload.PhotoResult{Key: f.next(draftID, file.Name), Preview: "data:image/jpeg;base64,AA=="}, nil
}

func (f *fakeUploader) UploadDocument(ctx context.Context, draftID string, slot models.DocumentSlot, file upload.File) (*upload.DocumentResult, error) {
	if f.err != nil {
		return nil, &apperr.UploadError{Slot: string(slot), Stage: apperr.StagePut, Err: f.err}
	}
	return &upload.DocumentResult{Key: f.next(draftID, file.Name), Filename: file.Name, SizeBytes: int64(len(file.Data))}, nil
}

type fakeBackend struct {
	err     error
	created []*models.ListingRequest
	updated map[string]*models.ListingRequest
	vehicle json.RawMessage
}

func (f *fakeBackend) CreateListing(ctx context.Context, req *models.ListingRequest) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return json.RawMessage(`{"id":"` + req.ID + `"}`), nil
}

func (f *fakeBackend) UpdateListing(ctx context.Context, vehicleID string, req *models.ListingRequest) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = map[string]*models.ListingRequest{}
	}
	f.updated[vehicleID] = req
	return json.RawMessage(`{"updated":true}`), nil
}

func (f *fakeBackend) VehicleByID(ctx context.Context, id string) (json.RawMessage, error) {
	return f.vehicle, nil
}

type fakeRemover struct {
	keys []string
}

func (f *fakeRemover) Remove(ctx context.Context, key string) error {
	f.keys = append(f.keys, key)
	return nil
}

type failingSessions struct {
	session.Store
	fail bool
}

func (f *failingSessions) Save(ctx context.Context, id string, state models.FormState) error {
	if f.fail {
		return errors.New("redis down")
	}
	return f.Store.Save(ctx, id, state)
}

type fixture struct {
	manager  *Manager
	store    *Store
	sessions *failingSessions
	uploader *fakeUploader
	backend  *fakeBackend
}

func newFixture(t *testing.T, remover Remover) *fixture {
	t.Helper()
	f := &fixture{
		sessions: &failingSessions{Store: session.NewMemoryStore()},
		uploader: &fakeUploader{},
		backend:  &fakeBackend{},
	}
	deps := Deps{Sessions: f.sessions, Uploader: f.uploader, Backend: f.backend}
	if remover != nil {
		deps.Remover = remover
	}
	f.manager = NewManager(deps)
	s, err := f.manager.Create(context.Background())
	require.NoError(t, err)
	f.store = s
	return f
}

func photo(name string) upload.File {
	return upload.File{Name: name, ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}
}

func raw(t *testing.T, v map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	for k, val := range v {
		b, err := json.Marshal(val)
		require.NoError(t, err)
		out[k] = b
	}
	return out
}

func TestUpdateDraftMergesShallowly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.store.DraftID()

	require.NoError(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{"make": "Toyota", "seats": "5"})))
	require.NoError(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{"model": "Vitz", "id": "hijack"})))

	d := f.store.Snapshot().VehicleData
	assert.Equal(t, id, d.ID)
	assert.Equal(t, "Toyota", d.Make)
	assert.Equal(t, "Vitz", d.Model)
	assert.Equal(t, "5", d.Seats)
}

func TestUpdateDraftRejectsUnknownAndMistyped(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	before := f.store.Snapshot()

	err := f.store.UpdateDraft(ctx, raw(t, map[string]any{"colour": "red"}))
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"colour"}, verr.Missing())

	err = f.store.UpdateDraft(ctx, raw(t, map[string]any{"seats": 5}))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "seats")

	assert.Equal(t, before, f.store.Snapshot())
}

func TestUpdateDraftPersists(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{"city": "Adama"})))

	persisted, err := f.sessions.Load(ctx, f.store.SessionID())
	require.NoError(t, err)
	assert.Equal(t, "Adama", persisted.VehicleData.City)
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	before := f.store.Snapshot()
	f.sessions.fail = true

	assert.Error(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{"city": "Adama"})))
	_, err := f.store.UploadPhoto(ctx, models.PhotoFront, photo("front.jpg"))
	var upErr *apperr.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, apperr.StageCommit, upErr.Stage)

	assert.Equal(t, before, f.store.Snapshot())
}

func TestUploadPhotoThenDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	back, err := f.store.UploadPhoto(ctx, models.PhotoBack, photo("back.jpg"))
	require.NoError(t, err)
	front, err := f.store.UploadPhoto(ctx, models.PhotoFront, photo("front.jpg"))
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, []string{back.StorageKey, front.StorageKey}, snap.VehicleData.VehicleImageKeys)
	assert.Equal(t, *front, snap.UploadedPhotos.Slots[models.PhotoFront])
	assert.Equal(t, []string{f.store.DraftID(), f.store.DraftID()}, f.uploader.seen)

	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoFront, front.StorageKey))
	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoFront, front.StorageKey))

	snap = f.store.Snapshot()
	assert.False(t, snap.UploadedPhotos.Has(models.PhotoFront))
	assert.Equal(t, []string{back.StorageKey}, snap.VehicleData.VehicleImageKeys)
}

func TestUpdatePhotoKeepsLength(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	front, err := f.store.UploadPhoto(ctx, models.PhotoFront, photo("front.jpg"))
	require.NoError(t, err)
	left, err := f.store.UploadPhoto(ctx, models.PhotoLeft, photo("left.jpg"))
	require.NoError(t, err)

	updated, err := f.store.UpdatePhoto(ctx, models.PhotoFront, front.StorageKey, photo("front2.jpg"))
	require.NoError(t, err)

	keys := f.store.Snapshot().VehicleData.VehicleImageKeys
	assert.Equal(t, []string{updated.StorageKey, left.StorageKey}, keys)
	assert.NotContains(t, keys, front.StorageKey)
}

func TestAdditionalPhotos(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.store.UploadPhoto(ctx, models.PhotoAdditional, photo("a.jpg"))
	require.NoError(t, err)
	b, err := f.store.UploadPhoto(ctx, models.PhotoAdditional, photo("b.jpg"))
	require.NoError(t, err)
	c, err := f.store.UpdatePhoto(ctx, models.PhotoAdditional, a.StorageKey, photo("c.jpg"))
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, []models.PhotoEntry{*c, *b}, snap.UploadedPhotos.Additional)
	assert.Equal(t, []string{c.StorageKey, b.StorageKey}, snap.VehicleData.VehicleImageKeys)

	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoAdditional, b.StorageKey))
	snap = f.store.Snapshot()
	assert.Equal(t, []models.PhotoEntry{*c}, snap.UploadedPhotos.Additional)
	assert.Equal(t, []string{c.StorageKey}, snap.VehicleData.VehicleImageKeys)
}

func TestDocuments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	libre, err := f.store.UploadDocument(ctx, models.DocumentLibre, upload.File{Name: "libre.pdf", Data: []byte("pdf")})
	require.NoError(t, err)
	assert.Equal(t, "libre.pdf", libre.Filename)
	assert.EqualValues(t, 3, libre.SizeBytes)

	replaced, err := f.store.UpdateDocument(ctx, models.DocumentLibre, libre.StorageKey, upload.File{Name: "libre-v2.pdf", Data: []byte("pdf2")})
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, []string{replaced.StorageKey}, snap.VehicleData.AdminDocumentKeys)
	assert.Equal(t, *replaced, snap.UploadedDocuments[models.DocumentLibre])

	require.NoError(t, f.store.DeleteDocument(ctx, models.DocumentLibre, replaced.StorageKey))
	snap = f.store.Snapshot()
	assert.Empty(t, snap.VehicleData.AdminDocumentKeys)
	assert.False(t, snap.UploadedDocuments.Has(models.DocumentLibre))
}

func TestInvalidSlot(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.store.UploadPhoto(context.Background(), models.PhotoSlot("roof"), photo("r.jpg"))
	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, f.uploader.n)
}

func TestFailedUploadRecordsNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.uploader.err = errors.New("storage 403")
	before := f.store.Snapshot()

	_, err := f.store.UploadPhoto(context.Background(), models.PhotoFront, photo("front.jpg"))
	var upErr *apperr.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, before, f.store.Snapshot())
}

func TestRemoverOnlyWhenConfigured(t *testing.T) {
	rm := &fakeRemover{}
	f := newFixture(t, rm)
	ctx := context.Background()

	front, err := f.store.UploadPhoto(ctx, models.PhotoFront, photo("front.jpg"))
	require.NoError(t, err)
	front2, err := f.store.UpdatePhoto(ctx, models.PhotoFront, front.StorageKey, photo("front2.jpg"))
	require.NoError(t, err)
	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoFront, front2.StorageKey))

	assert.Equal(t, []string{front.StorageKey, front2.StorageKey}, rm.keys)
}

func TestResetAssignsNewID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	old := f.store.DraftID()
	_, err := f.store.UploadPhoto(ctx, models.PhotoFront, photo("front.jpg"))
	require.NoError(t, err)

	require.NoError(t, f.store.Reset(ctx))

	snap := f.store.Snapshot()
	assert.NotEmpty(t, snap.VehicleData.ID)
	assert.NotEqual(t, old, snap.VehicleData.ID)
	assert.Empty(t, snap.UploadedPhotos.Slots)
	assert.Empty(t, snap.UploadedDocuments)
	assert.Empty(t, snap.VehicleData.VehicleImageKeys)
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var got []string
	cancel := f.store.Subscribe(func(s models.FormState) { got = append(got, s.VehicleData.City) })
	require.NoError(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{"city": "Adama"})))
	cancel()
	require.NoError(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{"city": "Hawassa"})))

	assert.Equal(t, []string{"Adama"}, got)
}

func fillSubmittable(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpdateDraft(ctx, raw(t, map[string]any{
		"userId": "u1", "make": "Toyota", "model": "Vitz", "year": "2015",
		"category": "hatchback", "city": "Adama", "vehicleNumber": "3-A1234",
		"transmission": "manual", "fuelType": "petrol", "seats": "5", "mileage": "120000",
		"plateRegion": "OR", "price": "1800", "serviceType": "self-drive",
	})))
	for _, slot := range models.RequiredPhotoSlots {
		_, err := s.UploadPhoto(ctx, slot, photo(string(slot)+".jpg"))
		require.NoError(t, err)
	}
	for _, slot := range models.RequiredDocumentSlots {
		_, err := s.UploadDocument(ctx, slot, upload.File{Name: string(slot) + ".pdf", Data: []byte("pdf")})
		require.NoError(t, err)
	}
}

func TestSubmitListing(t *testing.T) {
	f := newFixture(t, nil)
	fillSubmittable(t, f.store)

	resp, err := f.store.SubmitListing(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+f.store.DraftID()+`"}`, string(resp))
	require.Len(t, f.backend.created, 1)
	assert.Len(t, f.backend.created[0].VehicleImages, 6)
	assert.Len(t, f.backend.created[0].AdminDocuments, 3)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, nil)
	fillSubmittable(t, f.store)
	f.backend.err = &apperr.APIError{Method: "POST", Path: "/v1/vehicle", Status: 503, Body: "unavailable"}

	before, err := json.Marshal(f.store.Snapshot().VehicleData)
	require.NoError(t, err)

	_, err = f.store.SubmitListing(context.Background())
	var apiErr *apperr.APIError
	require.ErrorAs(t, err, &apiErr)

	after, err := json.Marshal(f.store.Snapshot().VehicleData)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSubmitIncompleteDraft(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.store.SubmitListing(context.Background())
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, f.backend.created)
}

func TestUpdateDraftCanonicalizesUnavailableDates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.store.UpdateDraft(ctx, raw(t, map[string]any{
		"unavailableDates": []string{"2025-06-12T00:00:00.000Z", "2025-06-10T00:00:00.000Z", "2025-06-10", "2025-06-11T15:00:00Z"},
	})))
	assert.Equal(t, []string{
		"2025-06-10T00:00:00.000Z",
		"2025-06-11T00:00:00.000Z",
		"2025-06-12T00:00:00.000Z",
	}, f.store.Snapshot().VehicleData.UnavailableDates)

	before := f.store.Snapshot()
	err := f.store.UpdateDraft(ctx, raw(t, map[string]any{
		"unavailableDates": []string{"2025-06-10", "garbage"},
	}))
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"unavailableDates[1]"}, verr.Missing())
	assert.Equal(t, before, f.store.Snapshot())
}

func TestDeleteWithAnotherSlotsKeyIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	front, err := f.store.UploadPhoto(ctx, models.PhotoFront, photo("f.jpg"))
	require.NoError(t, err)
	back, err := f.store.UploadPhoto(ctx, models.PhotoBack, photo("b.jpg"))
	require.NoError(t, err)
	extra, err := f.store.UploadPhoto(ctx, models.PhotoAdditional, photo("x.jpg"))
	require.NoError(t, err)
	libre, err := f.store.UploadDocument(ctx, models.DocumentLibre, upload.File{Name: "libre.pdf", Data: []byte("pdf")})
	require.NoError(t, err)
	license, err := f.store.UploadDocument(ctx, models.DocumentLicense, upload.File{Name: "license.pdf", Data: []byte("pdf")})
	require.NoError(t, err)
	before := f.store.Snapshot()

	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoFront, back.StorageKey))
	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoAdditional, front.StorageKey))
	require.NoError(t, f.store.DeleteDocument(ctx, models.DocumentLibre, license.StorageKey))
	assert.Equal(t, before, f.store.Snapshot())

	require.NoError(t, f.store.DeletePhoto(ctx, models.PhotoFront, ""))
	require.NoError(t, f.store.DeleteDocument(ctx, models.DocumentLibre, ""))
	snap := f.store.Snapshot()
	assert.False(t, snap.UploadedPhotos.Has(models.PhotoFront))
	assert.True(t, snap.UploadedPhotos.Has(models.PhotoBack))
	assert.Equal(t, []string{back.StorageKey, extra.StorageKey}, snap.VehicleData.VehicleImageKeys)
	assert.Equal(t, []string{license.StorageKey}, snap.VehicleData.AdminDocumentKeys)
	assert.NotContains(t, snap.VehicleData.AdminDocumentKeys, libre.StorageKey)
}

// gatedUploader holds each upload until release is closed.
type gatedUploader struct {
	fakeUploader
	started chan struct{}
	release chan struct{}
}

func newGatedUploader() *gatedUploader {
	return &gatedUploader{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedUploader) UploadPhoto(ctx context.Context, draftID string, slot models.PhotoSlot, file upload.File) (*upload.PhotoResult, error) {
	g.started <- struct{}{}
	<-g.release
	return g.fakeUploader.UploadPhoto(ctx, draftID, slot, file)
}

func startGatedUpload(t *testing.T, s *Store, g *gatedUploader) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := s.UploadPhoto(context.Background(), models.PhotoFront, photo("front.jpg"))
		done <- err
	}()
	<-g.started
	return done
}

func TestUploadAfterResetIsStale(t *testing.T) {
	ctx := context.Background()
	g := newGatedUploader()
	m := NewManager(Deps{Sessions: session.NewMemoryStore(), Uploader: g, Backend: &fakeBackend{}})
	s, err := m.Create(ctx)
	require.NoError(t, err)

	done := startGatedUpload(t, s, g)
	require.NoError(t, s.Reset(ctx))
	close(g.release)

	err = <-done
	var upErr *apperr.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, apperr.StageCommit, upErr.Stage)
	assert.ErrorIs(t, err, errStaleDraft)

	snap := s.Snapshot()
	assert.False(t, snap.UploadedPhotos.Has(models.PhotoFront))
	assert.Empty(t, snap.VehicleData.VehicleImageKeys)
}

func TestUploadAfterCloseDoesNotRevive(t *testing.T) {
	ctx := context.Background()
	g := newGatedUploader()
	m := NewManager(Deps{Sessions: session.NewMemoryStore(), Uploader: g, Backend: &fakeBackend{}})
	s, err := m.Create(ctx)
	require.NoError(t, err)

	done := startGatedUpload(t, s, g)
	require.NoError(t, m.Close(ctx, s.SessionID()))
	close(g.release)

	err = <-done
	var upErr *apperr.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, apperr.StageCommit, upErr.Stage)
	assert.ErrorIs(t, err, errSessionClosed)

	_, err = m.Open(ctx, s.SessionID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.UpdateDraft(ctx, raw(t, map[string]any{"city": "Adama"})), errSessionClosed)
}
