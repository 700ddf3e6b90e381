package order

import (
	"context"
	"errors"

	"github.com/hims/hims/internal/platform/openmrs"
)

var (
	// ErrPatientNotFound is returned when no patient matches the card number.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrOrderTypeNotFound is returned when no order type matches the
	// requested display name.
	ErrOrderTypeNotFound = errors.New("order type not found")
)

// LookupRequest is the order lookup request body.
type LookupRequest struct {
	CardNumber string `json:"cardNumber"`
	OrderType  string `json:"orderType"`
}

// EnrichedOrder is an upstream order with the locally cached price
// attached. Price defaults to 0 when no price record exists for the
// order's concept.
type EnrichedOrder struct {
	openmrs.Order
	Price float64 `json:"price"`
}

// Source is the subset of the OpenMRS client the order lookup consumes.
type Source interface {
	FindPatients(ctx context.Context, cardNumber string) ([]openmrs.Patient, error)
	ListOrderTypes(ctx context.Context) ([]openmrs.OrderType, error)
	ListOrders(ctx context.Context, patientUUID, orderTypeUUID string) ([]openmrs.Order, error)
}

// PriceRepository resolves the billed amount for a concept. It is owned
// by billing data and read-only here.
type PriceRepository interface {
	// AmountFor returns the amount and whether a price record exists.
	AmountFor(ctx context.Context, conceptUUID string) (float64, bool, error)
}
