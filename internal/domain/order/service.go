package order

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hims/hims/internal/platform/textnorm"
)

// Service answers order lookups: resolve the patient, match the order
// type by normalized display name, join prices and keep only the most
// recent activation batch.
type Service struct {
	source Source
	prices PriceRepository
	logger zerolog.Logger
}

// NewService creates an order lookup service.
func NewService(source Source, prices PriceRepository, logger zerolog.Logger) *Service {
	return &Service{source: source, prices: prices, logger: logger}
}

// Lookup returns the latest order batch for the patient identified by
// cardNumber, filtered to the named order type. Ties on dateActivated
// are all included; an empty order list is not an error.
func (s *Service) Lookup(ctx context.Context, cardNumber, orderType string) ([]EnrichedOrder, error) {
	patients, err := s.source.FindPatients(ctx, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("lookup patient %s: %w", cardNumber, err)
	}
	if len(patients) == 0 {
		return nil, fmt.Errorf("%w: card %s", ErrPatientNotFound, cardNumber)
	}
	patient := patients[0]

	types, err := s.source.ListOrderTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list order types: %w", err)
	}

	var orderTypeUUID string
	for _, t := range types {
		if textnorm.Equal(t.Display, orderType) {
			orderTypeUUID = t.UUID
			break
		}
	}
	if orderTypeUUID == "" {
		return nil, fmt.Errorf("%w: %q", ErrOrderTypeNotFound, orderType)
	}

	orders, err := s.source.ListOrders(ctx, patient.UUID, orderTypeUUID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", patient.UUID, err)
	}

	enriched := make([]EnrichedOrder, 0, len(orders))
	var maxDate time.Time
	for _, o := range orders {
		amount, ok, err := s.prices.AmountFor(ctx, o.Concept.UUID)
		if err != nil {
			return nil, fmt.Errorf("price lookup for concept %s: %w", o.Concept.UUID, err)
		}
		if !ok {
			amount = 0
		}
		enriched = append(enriched, EnrichedOrder{Order: o, Price: amount})
		if o.DateActivated.After(maxDate) {
			maxDate = o.DateActivated.Time
		}
	}

	// Latest-batch policy: every order sharing the maximum activation
	// timestamp is returned, not just a single most recent order.
	latest := make([]EnrichedOrder, 0, len(enriched))
	for _, o := range enriched {
		if o.DateActivated.Equal(maxDate) {
			latest = append(latest, o)
		}
	}

	s.logger.Debug().
		Str("patient_uuid", patient.UUID).
		Int("orders", len(orders)).
		Int("latest_batch", len(latest)).
		Time("max_date", maxDate).
		Msg("order lookup")
	return latest, nil
}
