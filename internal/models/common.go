// internal/models/common.go
package models

type PhotoSlot string

const (
	PhotoFront         PhotoSlot = "front"
	PhotoBack          PhotoSlot = "back"
	PhotoLeft          PhotoSlot = "left"
	PhotoRight         PhotoSlot = "right"
	PhotoInteriorFront PhotoSlot = "interiorFront"
	PhotoInteriorBack  PhotoSlot = "interiorBack"
	// PhotoAdditional holds any number of extra photos.
	PhotoAdditional PhotoSlot = "additional"
)

// RequiredPhotoSlots must all be filled before the photos step can be left.
var RequiredPhotoSlots = []PhotoSlot{
	PhotoFront, PhotoBack, PhotoLeft, PhotoRight, PhotoInteriorFront, PhotoInteriorBack,
}

func (s PhotoSlot) Valid() bool {
	if s == PhotoAdditional {
		return true
	}
	for _, r := range RequiredPhotoSlots {
		if s == r {
			return true
		}
	}
	return false
}

type DocumentSlot string

const (
	DocumentLibre           DocumentSlot = "libre"
	DocumentLicense         DocumentSlot = "license"
	DocumentInsurance       DocumentSlot = "insurance"
	DocumentPowerOfAttorney DocumentSlot = "powerOfAttorney"
)

var RequiredDocumentSlots = []DocumentSlot{DocumentLibre, DocumentLicense, DocumentInsurance}

func (s DocumentSlot) Valid() bool {
	switch s {
	case DocumentLibre, DocumentLicense, DocumentInsurance, DocumentPowerOfAttorney:
		return true
	}
	return false
}

// PhotoEntry is the local preview of an uploaded photo.
type PhotoEntry struct {
	Preview    string `json:"preview"` // data URL, base64 JPEG
	StorageKey string `json:"storageKey"`
}

// UploadedPhotoSet is transient UI state; it never reaches the backend.
type UploadedPhotoSet struct {
	Slots      map[PhotoSlot]PhotoEntry `json:"slots"`
	Additional []PhotoEntry             `json:"additional"`
}

func NewUploadedPhotoSet() UploadedPhotoSet {
	return UploadedPhotoSet{
		Slots:      map[PhotoSlot]PhotoEntry{},
		Additional: []PhotoEntry{},
	}
}

func (p UploadedPhotoSet) Clone() UploadedPhotoSet {
	out := NewUploadedPhotoSet()
	for k, v := range p.Slots {
		out.Slots[k] = v
	}
	out.Additional = append(out.Additional, p.Additional...)
	return out
}

// Has reports whether slot holds a photo. For the additional slot it is true when any photo exists.
func (p UploadedPhotoSet) Has(slot PhotoSlot) bool {
	if slot == PhotoAdditional {
		return len(p.Additional) > 0
	}
	e, ok := p.Slots[slot]
	return ok && e.StorageKey != ""
}

// DocumentEntry is what the form shows for an uploaded document.
type DocumentEntry struct {
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"sizeBytes"`
	StorageKey string `json:"storageKey"`
}

type UploadedDocumentSet map[DocumentSlot]DocumentEntry

func (d UploadedDocumentSet) Clone() UploadedDocumentSet {
	out := make(UploadedDocumentSet, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (d UploadedDocumentSet) Has(slot DocumentSlot) bool {
	e, ok := d[slot]
	return ok && e.StorageKey != ""
}

// FormState is the unit persisted per form session.
type FormState struct {
	VehicleData       VehicleDraft        `json:"vehicleData"`
	UploadedPhotos    UploadedPhotoSet    `json:"uploadedPhotos"`
	UploadedDocuments UploadedDocumentSet `json:"uploadedDocuments"`

	// EditingVehicleID is set when the session edits an existing vehicle; submit then updates it.
	EditingVehicleID string `json:"editingVehicleId,omitempty"`
}

func NewFormState(draftID string) FormState {
	return FormState{
		VehicleData:       NewVehicleDraft(draftID),
		UploadedPhotos:    NewUploadedPhotoSet(),
		UploadedDocuments: UploadedDocumentSet{},
	}
}

func (s FormState) Clone() FormState {
	return FormState{
		VehicleData:       s.VehicleData.Clone(),
		UploadedPhotos:    s.UploadedPhotos.Clone(),
		UploadedDocuments: s.UploadedDocuments.Clone(),
		EditingVehicleID:  s.EditingVehicleID,
	}
}

// PresignedUpload is what the backend hands out for a direct-to-storage PUT.
type PresignedUpload struct {
	URL string `json:"url"`
	Key string `json:"key"`
}
