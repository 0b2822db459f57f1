package models

// ListingRequest is the wire format of a create/update vehicle call.
// Numbers travel as canonical decimal strings; the backend contract takes strings.
type ListingRequest struct {
	ID     string `json:"id" validate:"required"`
	UserID string `json:"userId" validate:"required"`

	Make          string `json:"make" validate:"required"`
	Model         string `json:"model" validate:"required"`
	OtherMake     string `json:"otherMake,omitempty" validate:"required_if=Make other"`
	Year          string `json:"year" validate:"required,numeric"`
	Category      string `json:"category" validate:"required"`
	City          string `json:"city" validate:"required"`
	VehicleNumber string `json:"vehicleNumber" validate:"required"`
	Color         string `json:"color,omitempty"`
	Transmission  string `json:"transmission" validate:"required"`
	FuelType      string `json:"fuelType" validate:"required"`
	Seats         string `json:"seats" validate:"required,numeric"`
	Doors         string `json:"doors,omitempty" validate:"omitempty,numeric"`
	Mileage       string `json:"mileage" validate:"required,numeric"`
	PlateRegion   string `json:"plateRegion" validate:"required"`

	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty" validate:"omitempty,len=2"`
	Features    []string  `json:"features"`

	Price               string   `json:"price" validate:"required,numeric"`
	AdvanceNoticePeriod string   `json:"advanceNoticePeriod,omitempty" validate:"omitempty,numeric"`
	InstantBooking      bool     `json:"instantBooking"`
	UnavailableDates    []string `json:"unavailableDates"`

	ServiceType       string   `json:"serviceType" validate:"required,oneof=self-drive with-driver both"`
	DriverPrice       string   `json:"driverPrice,omitempty" validate:"required_unless=ServiceType self-drive,omitempty,numeric"`
	DriverMaxHours    string   `json:"driverMaxHours,omitempty" validate:"required_unless=ServiceType self-drive,omitempty,numeric"`
	DriverHours       string   `json:"driverHours,omitempty" validate:"required_unless=ServiceType self-drive"`
	DriverWorkingDays []string `json:"driverWorkingDays,omitempty" validate:"required_unless=ServiceType self-drive,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`

	IsPostedByOwner         string `json:"isPostedByOwner,omitempty" validate:"omitempty,oneof=true false"`
	RepresentativeFirstName string `json:"representativeFirstName,omitempty" validate:"required_if=IsPostedByOwner false"`
	RepresentativeLastName  string `json:"representativeLastName,omitempty" validate:"required_if=IsPostedByOwner false"`
	RepresentativePhone     string `json:"representativePhone,omitempty" validate:"required_if=IsPostedByOwner false"`
	RepresentativeEmail     string `json:"representativeEmail,omitempty" validate:"required_if=IsPostedByOwner false,omitempty,email"`

	VehicleImages  []string `json:"vehicleImages" validate:"min=6,dive,required"`
	AdminDocuments []string `json:"adminDocuments" validate:"min=3,dive,required"`
}

// UpdateListingRequest wraps a listing for the add_vehicle "update" operation.
type UpdateListingRequest struct {
	Operation string `json:"operation"`
	VehicleID string `json:"vehicleId"`
	ListingRequest
}
