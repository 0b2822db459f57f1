package wizard

import (
	"slices"
	"strings"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"
)

type guard func(st models.FormState, v *apperr.ValidationError)

var guards = map[Step]guard{
	Step1: vehicleFacts,
	Step2: media,
	Step3: pricingAndService,
}

// Check reports every field that keeps step from advancing, or nil.
func Check(step Step, st models.FormState) error {
	v := apperr.NewValidationError(step.String())
	if g, ok := guards[step]; ok {
		g(st, v)
	}
	return v.OrNil()
}

func need(v *apperr.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

func vehicleFacts(st models.FormState, v *apperr.ValidationError) {
	d := st.VehicleData
	need(v, "userId", d.UserID)
	need(v, "city", d.City)
	need(v, "fuelType", d.FuelType)
	need(v, "seats", d.Seats)
	need(v, "vehicleNumber", d.VehicleNumber)
	need(v, "mileage", d.Mileage)
	need(v, "year", d.Year)
	need(v, "plateRegion", d.PlateRegion)
	need(v, "category", d.Category)
	need(v, "make", d.Make)
	need(v, "model", d.Model)
	need(v, "transmission", d.Transmission)
	if d.Make == models.MakeOther {
		need(v, "otherMake", d.OtherMake)
	}
}

func media(st models.FormState, v *apperr.ValidationError) {
	for _, slot := range models.RequiredPhotoSlots {
		if !st.UploadedPhotos.Has(slot) {
			v.Add("photos."+string(slot), "is required")
		}
	}
	for _, slot := range models.RequiredDocumentSlots {
		if !st.UploadedDocuments.Has(slot) {
			v.Add("documents."+string(slot), "is required")
		}
	}

	d := st.VehicleData
	if d.IsPostedByOwner != models.PostedByRepresentative {
		return
	}
	need(v, "representativeFirstName", d.RepresentativeFirstName)
	need(v, "representativeLastName", d.RepresentativeLastName)
	need(v, "representativePhone", d.RepresentativePhone)
	need(v, "representativeEmail", d.RepresentativeEmail)
	if !st.UploadedDocuments.Has(models.DocumentPowerOfAttorney) {
		v.Add("documents."+string(models.DocumentPowerOfAttorney), "is required")
	}
}

func pricingAndService(st models.FormState, v *apperr.ValidationError) {
	d := st.VehicleData
	need(v, "price", d.Price)
	if !d.ServiceType.Valid() {
		v.Add("serviceType", "must be one of self-drive, with-driver, both")
		return
	}
	if !d.ServiceType.NeedsDriver() {
		return
	}
	need(v, "driverPrice", d.DriverPrice)
	need(v, "driverMaxHours", d.DriverMaxHours)
	need(v, "driverHours", d.DriverHours)
	if len(d.DriverWorkingDays) == 0 {
		v.Add("driverWorkingDays", "is required")
	}
	for _, day := range d.DriverWorkingDays {
		if !slices.Contains(models.Weekdays, day) {
			v.Add("driverWorkingDays", "unknown weekday "+day)
			break
		}
	}
}
