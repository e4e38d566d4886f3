package services

import (
	"github.com/google/uuid"

	"github.com/quotewise/quote-engine/pkg/models"
)

// itemOpt tweaks a test line item after the defaults are set.
type itemOpt func(*models.LineItem)

func withSystem(id, label string) itemOpt {
	return func(li *models.LineItem) {
		li.SystemID = id
		li.SystemLabel = label
	}
}

func withService(service string) itemOpt {
	return func(li *models.LineItem) { li.Service = service }
}

func withSection(section string) itemOpt {
	return func(li *models.LineItem) { li.Section = section }
}

func withUnit(unit string) itemOpt {
	return func(li *models.LineItem) { li.Unit = unit }
}

func makeItem(supplier, description string, qty, rate float64, opts ...itemOpt) *models.LineItem {
	li := &models.LineItem{
		ID:          uuid.New(),
		QuoteID:     uuid.New(),
		Supplier:    supplier,
		Description: description,
		Quantity:    qty,
		Unit:        "no",
		Rate:        rate,
		Total:       qty * rate,
	}
	for _, opt := range opts {
		opt(li)
	}
	return li
}

func quoteOf(supplier string, items ...*models.LineItem) models.SupplierQuote {
	return models.SupplierQuote{Supplier: supplier, Items: items}
}
