// internal/models/vehicle.go
package models

type ServiceType string

const (
	ServiceSelfDrive  ServiceType = "self-drive"
	ServiceWithDriver ServiceType = "with-driver"
	ServiceBoth       ServiceType = "both"
)

// Valid reports whether s is one of the known service types.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceSelfDrive, ServiceWithDriver, ServiceBoth:
		return true
	}
	return false
}

// NeedsDriver is true for every service type that offers a driver.
func (s ServiceType) NeedsDriver() bool {
	return s == ServiceWithDriver || s == ServiceBoth
}

// Values of IsPostedByOwner. The empty string means the question is unanswered.
const (
	PostedByOwner          = "true"
	PostedByRepresentative = "false"
)

// MakeOther is the make value that switches the form to a free-text OtherMake.
const MakeOther = "other"

// Weekdays are the accepted DriverWorkingDays values.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// VehicleDraft is the in-progress listing held by a form session.
// Numeric inputs are kept as entered; they are parsed when the listing request is built.
type VehicleDraft struct {
	ID string `json:"id"`

	// Target user the listing is created for.
	UserID string `json:"userId"`

	Make          string `json:"make"`
	Model         string `json:"model"`
	OtherMake     string `json:"otherMake"`
	Year          string `json:"year"`
	Category      string `json:"category"`
	City          string `json:"city"`
	VehicleNumber string `json:"vehicleNumber"`
	Color         string `json:"color"`
	Transmission  string `json:"transmission"`
	FuelType      string `json:"fuelType"`
	Seats         string `json:"seats"`
	Doors         string `json:"doors"`
	Mileage       string `json:"mileage"`
	PlateRegion   string `json:"plateRegion"`

	Description string    `json:"description"`
	Address     string    `json:"address"`
	Location    *GeoPoint `json:"location,omitempty"`
	Features    []string  `json:"features"`

	Price               string   `json:"price"`
	AdvanceNoticePeriod string   `json:"advanceNoticePeriod"`
	InstantBooking      bool     `json:"instantBooking"`
	UnavailableDates    []string `json:"unavailableDates"`

	ServiceType       ServiceType `json:"serviceType"`
	DriverPrice       string      `json:"driverPrice"`
	DriverMaxHours    string      `json:"driverMaxHours"`
	DriverHours       string      `json:"driverHours"`
	DriverWorkingDays []string    `json:"driverWorkingDays"`

	IsPostedByOwner         string `json:"isPostedByOwner"`
	RepresentativeFirstName string `json:"representativeFirstName"`
	RepresentativeLastName  string `json:"representativeLastName"`
	RepresentativePhone     string `json:"representativePhone"`
	RepresentativeEmail     string `json:"representativeEmail"`

	VehicleImageKeys  []string `json:"vehicleImageKeys"`
	AdminDocumentKeys []string `json:"adminDocumentKeys"`
}

// NewVehicleDraft returns an empty draft carrying id.
func NewVehicleDraft(id string) VehicleDraft {
	return VehicleDraft{
		ID:                id,
		Features:          []string{},
		UnavailableDates:  []string{},
		DriverWorkingDays: []string{},
		VehicleImageKeys:  []string{},
		AdminDocumentKeys: []string{},
	}
}

// Clone returns a deep copy so callers can mutate the result freely.
func (d VehicleDraft) Clone() VehicleDraft {
	out := d
	out.Features = cloneStrings(d.Features)
	out.UnavailableDates = cloneStrings(d.UnavailableDates)
	out.DriverWorkingDays = cloneStrings(d.DriverWorkingDays)
	out.VehicleImageKeys = cloneStrings(d.VehicleImageKeys)
	out.AdminDocumentKeys = cloneStrings(d.AdminDocumentKeys)
	if d.Location != nil {
		loc := *d.Location
		out.Location = &loc
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
