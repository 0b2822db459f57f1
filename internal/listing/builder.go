// Package listing turns a VehicleDraft into the strict request the backend accepts.
//
// Form values are kept as entered while the wizard runs. Build parses every
// numeric field, re-emits it in canonical form and validates the whole
// request. A field that is missing or malformed fails the build; nothing is
// replaced with a placeholder.
package listing

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

const step = "submit"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Build assembles the listing request for draft. The returned error is a
// *apperr.ValidationError when any field is missing or invalid.
func Build(draft models.VehicleDraft) (*models.ListingRequest, error) {
	verr := apperr.NewValidationError(step)
	d := draft.Clone()

	req := &models.ListingRequest{
		ID:     strings.TrimSpace(d.ID),
		UserID: strings.TrimSpace(d.UserID),

		Make:          strings.TrimSpace(d.Make),
		Model:         strings.TrimSpace(d.Model),
		Category:      strings.TrimSpace(d.Category),
		City:          strings.TrimSpace(d.City),
		VehicleNumber: strings.TrimSpace(d.VehicleNumber),
		Color:         strings.TrimSpace(d.Color),
		Transmission:  strings.TrimSpace(d.Transmission),
		FuelType:      strings.TrimSpace(d.FuelType),
		PlateRegion:   strings.TrimSpace(d.PlateRegion),

		Description: strings.TrimSpace(d.Description),
		Address:     strings.TrimSpace(d.Address),
		Features:    nonNil(d.Features),

		InstantBooking:   d.InstantBooking,
		UnavailableDates: nonNil(d.UnavailableDates),

		ServiceType: string(d.ServiceType),
		DriverHours: strings.TrimSpace(d.DriverHours),

		IsPostedByOwner: d.IsPostedByOwner,

		VehicleImages:  nonNil(d.VehicleImageKeys),
		AdminDocuments: nonNil(d.AdminDocumentKeys),
	}
	if req.Make == models.MakeOther {
		req.OtherMake = strings.TrimSpace(d.OtherMake)
	}

	req.Year = integer(verr, "year", d.Year)
	req.Seats = integer(verr, "seats", d.Seats)
	req.Doors = integer(verr, "doors", d.Doors)
	req.Mileage = integer(verr, "mileage", d.Mileage)
	req.Price = decimal(verr, "price", d.Price)
	req.AdvanceNoticePeriod = integer(verr, "advanceNoticePeriod", d.AdvanceNoticePeriod)

	if d.ServiceType.NeedsDriver() {
		req.DriverPrice = decimal(verr, "driverPrice", d.DriverPrice)
		req.DriverMaxHours = decimal(verr, "driverMaxHours", d.DriverMaxHours)
		// required_unless treats an empty non-nil slice as present.
		if len(d.DriverWorkingDays) > 0 {
			req.DriverWorkingDays = d.DriverWorkingDays
		}
	} else {
		req.DriverHours = ""
	}

	if d.IsPostedByOwner == models.PostedByRepresentative {
		req.RepresentativeFirstName = strings.TrimSpace(d.RepresentativeFirstName)
		req.RepresentativeLastName = strings.TrimSpace(d.RepresentativeLastName)
		req.RepresentativePhone = strings.TrimSpace(d.RepresentativePhone)
		req.RepresentativeEmail = strings.TrimSpace(d.RepresentativeEmail)
	}

	if d.Location != nil {
		req.Coordinates = []float64{d.Location.Lng, d.Location.Lat}
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate listing: %w", err)
		}
		for _, fe := range fieldErrs {
			name := fe.Field()
			if _, seen := verr.Fields[name]; !seen {
				verr.Add(name, reason(fe))
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return req, nil
}

// integer parses a whole, non-negative number. Empty input stays empty so
// required rules can report it.
func integer(verr *apperr.ValidationError, field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		verr.Add(field, "must be a whole number")
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}

func decimal(verr *apperr.ValidationError, field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		verr.Add(field, "must be a non-negative number")
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return "is required"
	case "numeric":
		return "must be a number"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s values", fe.Param())
	case "email":
		return "must be a valid email address"
	}
	return "failed " + fe.Tag()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
