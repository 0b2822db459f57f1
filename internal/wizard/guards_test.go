package wizard

import (
	"testing"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passingState satisfies every guard, including the representative and with-driver branches.
func passingState() models.FormState {
	st := models.NewFormState("d")
	d := &st.VehicleData
	d.UserID = "u1"
	d.City = "Adama"
	d.FuelType = "diesel"
	d.Seats = "7"
	d.VehicleNumber = "3-B9876"
	d.Mileage = "40000"
	d.Year = "2021"
	d.PlateRegion = "OR"
	d.Category = "suv"
	d.Make = "Toyota"
	d.Model = "Prado"
	d.Transmission = "automatic"

	d.IsPostedByOwner = models.PostedByRepresentative
	d.RepresentativeFirstName = "Sara"
	d.RepresentativeLastName = "Bekele"
	d.RepresentativePhone = "+251911000000"
	d.RepresentativeEmail = "sara@example.com"
	for _, slot := range models.RequiredPhotoSlots {
		st.UploadedPhotos.Slots[slot] = models.PhotoEntry{StorageKey: "p-" + string(slot)}
	}
	for _, slot := range append(append([]models.DocumentSlot{}, models.RequiredDocumentSlots...), models.DocumentPowerOfAttorney) {
		st.UploadedDocuments[slot] = models.DocumentEntry{Filename: string(slot) + ".pdf", StorageKey: "d-" + string(slot)}
	}

	d.Price = "3000"
	d.ServiceType = models.ServiceWithDriver
	d.DriverPrice = "500"
	d.DriverMaxHours = "10"
	d.DriverHours = "08:00-18:00"
	d.DriverWorkingDays = []string{"monday", "friday"}
	return st
}

func TestPassingStateClearsAllGuards(t *testing.T) {
	for _, step := range []Step{Step1, Step2, Step3, Step4} {
		assert.NoError(t, Check(step, passingState()), step.String())
	}
}

type guardCase struct {
	step  Step
	field string
	drop  func(st *models.FormState)
}

func TestEachRequiredFieldBlocksItsStep(t *testing.T) {
	tests := []guardCase{
		{Step1, "userId", func(st *models.FormState) { st.VehicleData.UserID = "" }},
		{Step1, "city", func(st *models.FormState) { st.VehicleData.City = " " }},
		{Step1, "fuelType", func(st *models.FormState) { st.VehicleData.FuelType = "" }},
		{Step1, "seats", func(st *models.FormState) { st.VehicleData.Seats = "" }},
		{Step1, "vehicleNumber", func(st *models.FormState) { st.VehicleData.VehicleNumber = "" }},
		{Step1, "mileage", func(st *models.FormState) { st.VehicleData.Mileage = "" }},
		{Step1, "year", func(st *models.FormState) { st.VehicleData.Year = "" }},
		{Step1, "plateRegion", func(st *models.FormState) { st.VehicleData.PlateRegion = "" }},
		{Step1, "category", func(st *models.FormState) { st.VehicleData.Category = "" }},
		{Step1, "make", func(st *models.FormState) { st.VehicleData.Make = "" }},
		{Step1, "model", func(st *models.FormState) { st.VehicleData.Model = "" }},
		{Step1, "transmission", func(st *models.FormState) { st.VehicleData.Transmission = "" }},
		{Step1, "otherMake", func(st *models.FormState) { st.VehicleData.Make = models.MakeOther }},

		{Step2, "representativeFirstName", func(st *models.FormState) { st.VehicleData.RepresentativeFirstName = "" }},
		{Step2, "representativeLastName", func(st *models.FormState) { st.VehicleData.RepresentativeLastName = "" }},
		{Step2, "representativePhone", func(st *models.FormState) { st.VehicleData.RepresentativePhone = "" }},
		{Step2, "representativeEmail", func(st *models.FormState) { st.VehicleData.RepresentativeEmail = "" }},
		{Step2, "documents.powerOfAttorney", func(st *models.FormState) {
			delete(st.UploadedDocuments, models.DocumentPowerOfAttorney)
		}},

		{Step3, "price", func(st *models.FormState) { st.VehicleData.Price = "" }},
		{Step3, "driverPrice", func(st *models.FormState) { st.VehicleData.DriverPrice = "" }},
		{Step3, "driverMaxHours", func(st *models.FormState) { st.VehicleData.DriverMaxHours = "" }},
		{Step3, "driverHours", func(st *models.FormState) { st.VehicleData.DriverHours = "" }},
		{Step3, "driverWorkingDays", func(st *models.FormState) { st.VehicleData.DriverWorkingDays = nil }},
		{Step3, "driverWorkingDays", func(st *models.FormState) { st.VehicleData.DriverWorkingDays = []string{"someday"} }},
		{Step3, "serviceType", func(st *models.FormState) { st.VehicleData.ServiceType = "" }},
	}
	for _, slot := range models.RequiredPhotoSlots {
		slot := slot
		tests = append(tests, guardCase{Step2, "photos." + string(slot), func(st *models.FormState) { delete(st.UploadedPhotos.Slots, slot) }})
	}
	for _, slot := range models.RequiredDocumentSlots {
		slot := slot
		tests = append(tests, guardCase{Step2, "documents." + string(slot), func(st *models.FormState) { delete(st.UploadedDocuments, slot) }})
	}

	for _, tt := range tests {
		t.Run(tt.step.String()+"/"+tt.field, func(t *testing.T) {
			st := passingState()
			tt.drop(&st)

			var verr *apperr.ValidationError
			require.ErrorAs(t, Check(tt.step, st), &verr)
			assert.Equal(t, []string{tt.field}, verr.Missing())
		})
	}
}

func TestOwnerPostingSkipsRepresentativeFields(t *testing.T) {
	st := passingState()
	st.VehicleData.IsPostedByOwner = models.PostedByOwner
	st.VehicleData.RepresentativeFirstName = ""
	delete(st.UploadedDocuments, models.DocumentPowerOfAttorney)
	assert.NoError(t, Check(Step2, st))
}
