package entity

// VehicleType classifies fleet vehicles; rate bands are selected per type
type VehicleType string

const (
	VehicleTypeCar     VehicleType = "car"
	VehicleTypeVan     VehicleType = "van"
	VehicleTypeDyna    VehicleType = "dyna"
	VehicleTypeTrailer VehicleType = "trailer"
)

// IsValid reports whether t is a known vehicle type
func (t VehicleType) IsValid() bool {
	switch t {
	case VehicleTypeCar, VehicleTypeVan, VehicleTypeDyna, VehicleTypeTrailer:
		return true
	}
	return false
}

// RequestKind selects which segment list and which rate table a request uses
type RequestKind string

const (
	RequestKindTrip RequestKind = "trip"
	RequestKindFuel RequestKind = "fuel"
)

// IsValid reports whether k is a known request kind
func (k RequestKind) IsValid() bool {
	return k == RequestKindTrip || k == RequestKindFuel
}

// RangeDirection tells on which side of its threshold a band applies
type RangeDirection string

const (
	RangeUnder RangeDirection = "under"
	RangeOver  RangeDirection = "over"
)

// IsValid reports whether d is a known direction
func (d RangeDirection) IsValid() bool {
	return d == RangeUnder || d == RangeOver
}

// PricingMode selects the amount formula of a band
type PricingMode string

const (
	PricingFixed      PricingMode = "fixed"
	PricingPercentage PricingMode = "percentage"
)

// IsValid reports whether m is a known pricing mode
func (m PricingMode) IsValid() bool {
	return m == PricingFixed || m == PricingPercentage
}

// TripType describes the purpose of a segment. Empty is allowed.
type TripType string

const (
	TripTypeDelivery TripType = "delivery"
	TripTypeTransfer TripType = "transfer"
	TripTypeService  TripType = "service"
)

// IsValid reports whether t is empty or a known trip type
func (t TripType) IsValid() bool {
	switch t {
	case "", TripTypeDelivery, TripTypeTransfer, TripTypeService:
		return true
	}
	return false
}

// OdometerUnit of a vehicle
type OdometerUnit string

const (
	OdometerKilometers OdometerUnit = "kilometers"
	OdometerMiles      OdometerUnit = "miles"
)

// Payment constants
const (
	PaymentTypeOutbound = "outbound"
	PartnerTypeSupplier = "supplier"
	PaymentStateDraft   = "DRAFT"
)
