package formstore

import (
	"context"
	"fmt"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"
	"rental-admin-console/internal/upload"

	"go.uber.org/zap"
)

func invalidSlot(kind, slot string) error {
	v := apperr.NewValidationError(kind)
	v.Add("slot", fmt.Sprintf("unknown %s slot %q", kind, slot))
	return v
}

// UploadPhoto uploads f and records it in slot. A fixed slot that already
// holds a photo is overwritten and its key replaced; the additional slot appends.
func (s *Store) UploadPhoto(ctx context.Context, slot models.PhotoSlot, f upload.File) (*models.PhotoEntry, error) {
	return s.putPhoto(ctx, slot, "", f)
}

// UpdatePhoto uploads f and puts its key where oldKey was, keeping list order and length.
func (s *Store) UpdatePhoto(ctx context.Context, slot models.PhotoSlot, oldKey string, f upload.File) (*models.PhotoEntry, error) {
	entry, err := s.putPhoto(ctx, slot, oldKey, f)
	if err != nil {
		return nil, err
	}
	if oldKey != entry.StorageKey {
		s.removeRemote(ctx, oldKey)
	}
	return entry, nil
}

func (s *Store) putPhoto(ctx context.Context, slot models.PhotoSlot, oldKey string, f upload.File) (*models.PhotoEntry, error) {
	if !slot.Valid() {
		return nil, invalidSlot("photo", string(slot))
	}
	draftID := s.DraftID()

	res, err := s.deps.Uploader.UploadPhoto(ctx, draftID, slot, f)
	if err != nil {
		s.logger.Warn("photo upload failed", zap.String("slot", string(slot)), zap.Error(err))
		return nil, err
	}
	entry := models.PhotoEntry{Preview: res.Preview, StorageKey: res.Key}

	var replaced string
	err = s.commit(ctx, func(next *models.FormState) error {
		if next.VehicleData.ID != draftID {
			return errStaleDraft
		}
		d := &next.VehicleData
		photos := &next.UploadedPhotos

		if slot == models.PhotoAdditional {
			photos.Additional = replaceEntry(photos.Additional, oldKey, entry)
			d.VehicleImageKeys = replaceKey(d.VehicleImageKeys, oldKey, entry.StorageKey)
			return nil
		}

		prev := oldKey
		if current, ok := photos.Slots[slot]; ok && current.StorageKey != "" {
			if prev == "" {
				prev = current.StorageKey
			} else if prev != current.StorageKey {
				// The slot's own key would otherwise be orphaned in the key list.
				d.VehicleImageKeys = removeKey(d.VehicleImageKeys, current.StorageKey)
				replaced = current.StorageKey
			}
		}
		if oldKey == "" {
			replaced = prev
		}
		photos.Slots[slot] = entry
		d.VehicleImageKeys = replaceKey(d.VehicleImageKeys, prev, entry.StorageKey)
		return nil
	})
	if err != nil {
		return nil, &apperr.UploadError{Slot: string(slot), Stage: apperr.StageCommit, Err: err}
	}
	if replaced != "" && replaced != entry.StorageKey {
		s.removeRemote(ctx, replaced)
	}
	return &entry, nil
}

func replaceEntry(entries []models.PhotoEntry, oldKey string, entry models.PhotoEntry) []models.PhotoEntry {
	if oldKey != "" {
		for i, e := range entries {
			if e.StorageKey == oldKey {
				entries[i] = entry
				return entries
			}
		}
	}
	return append(entries, entry)
}

// DeletePhoto clears slot and drops its key from the draft. An empty key means
// whatever the slot holds; a key the slot does not hold is a no-op. Storage is
// only touched when a Remover is set.
func (s *Store) DeletePhoto(ctx context.Context, slot models.PhotoSlot, key string) error {
	if !slot.Valid() {
		return invalidSlot("photo", string(slot))
	}
	var removed string
	err := s.commit(ctx, func(next *models.FormState) error {
		photos := &next.UploadedPhotos
		if slot == models.PhotoAdditional {
			kept := photos.Additional[:0]
			for _, e := range photos.Additional {
				if e.StorageKey == key {
					removed = key
					continue
				}
				kept = append(kept, e)
			}
			photos.Additional = kept
		} else if current, ok := photos.Slots[slot]; ok && (key == "" || key == current.StorageKey) {
			delete(photos.Slots, slot)
			removed = current.StorageKey
		}
		// A key held by another slot is left alone.
		if removed != "" {
			next.VehicleData.VehicleImageKeys = removeKey(next.VehicleData.VehicleImageKeys, removed)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.removeRemote(ctx, removed)
	return nil
}

// UploadDocument uploads f unmodified and records it in slot, replacing any previous file.
func (s *Store) UploadDocument(ctx context.Context, slot models.DocumentSlot, f upload.File) (*models.DocumentEntry, error) {
	return s.putDocument(ctx, slot, "", f)
}

// UpdateDocument uploads f and puts its key where oldKey was.
func (s *Store) UpdateDocument(ctx context.Context, slot models.DocumentSlot, oldKey string, f upload.File) (*models.DocumentEntry, error) {
	entry, err := s.putDocument(ctx, slot, oldKey, f)
	if err != nil {
		return nil, err
	}
	if oldKey != entry.StorageKey {
		s.removeRemote(ctx, oldKey)
	}
	return entry, nil
}

func (s *Store) putDocument(ctx context.Context, slot models.DocumentSlot, oldKey string, f upload.File) (*models.DocumentEntry, error) {
	if !slot.Valid() {
		return nil, invalidSlot("document", string(slot))
	}
	draftID := s.DraftID()

	res, err := s.deps.Uploader.UploadDocument(ctx, draftID, slot, f)
	if err != nil {
		s.logger.Warn("document upload failed", zap.String("slot", string(slot)), zap.Error(err))
		return nil, err
	}
	entry := models.DocumentEntry{Filename: res.Filename, SizeBytes: res.SizeBytes, StorageKey: res.Key}

	var replaced string
	err = s.commit(ctx, func(next *models.FormState) error {
		if next.VehicleData.ID != draftID {
			return errStaleDraft
		}
		d := &next.VehicleData

		prev := oldKey
		if current, ok := next.UploadedDocuments[slot]; ok && current.StorageKey != "" {
			if prev == "" {
				prev = current.StorageKey
			} else if prev != current.StorageKey {
				d.AdminDocumentKeys = removeKey(d.AdminDocumentKeys, current.StorageKey)
				replaced = current.StorageKey
			}
		}
		if oldKey == "" {
			replaced = prev
		}
		next.UploadedDocuments[slot] = entry
		d.AdminDocumentKeys = replaceKey(d.AdminDocumentKeys, prev, entry.StorageKey)
		return nil
	})
	if err != nil {
		return nil, &apperr.UploadError{Slot: string(slot), Stage: apperr.StageCommit, Err: err}
	}
	if replaced != "" && replaced != entry.StorageKey {
		s.removeRemote(ctx, replaced)
	}
	return &entry, nil
}

// DeleteDocument clears slot and drops its key from the draft, like DeletePhoto.
func (s *Store) DeleteDocument(ctx context.Context, slot models.DocumentSlot, key string) error {
	if !slot.Valid() {
		return invalidSlot("document", string(slot))
	}
	var removed string
	err := s.commit(ctx, func(next *models.FormState) error {
		if current, ok := next.UploadedDocuments[slot]; ok && (key == "" || key == current.StorageKey) {
			delete(next.UploadedDocuments, slot)
			removed = current.StorageKey
		}
		if removed != "" {
			next.VehicleData.AdminDocumentKeys = removeKey(next.VehicleData.AdminDocumentKeys, removed)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.removeRemote(ctx, removed)
	return nil
}
