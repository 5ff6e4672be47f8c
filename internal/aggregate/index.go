// Package aggregate joins snapshot collections into resolved facts: sale
// revenue including linked garages and storage rooms, contract expense and
// unattributed project expense. It computes no KPIs.
package aggregate

import "github.com/sells-group/portfolio-report/internal/model"

// PriceIndex resolves linked garage and storage unit ids to their prices.
type PriceIndex struct {
	garages  map[string]float64
	storages map[string]float64
}

// NewPriceIndex indexes the garage and storage units of units.
func NewPriceIndex(units []model.Unit) *PriceIndex {
	idx := &PriceIndex{
		garages:  make(map[string]float64),
		storages: make(map[string]float64),
	}
	for _, u := range units {
		switch u.Kind {
		case model.UnitGarage:
			idx.garages[u.ID] = u.Price
		case model.UnitStorage:
			idx.storages[u.ID] = u.Price
		}
	}
	return idx
}

// Garage returns the price of the linked garage, or 0 if id is nil or unknown.
func (p *PriceIndex) Garage(id *string) float64 {
	if p == nil || id == nil {
		return 0
	}
	return p.garages[*id]
}

// Storage returns the price of the linked storage room, or 0 if id is nil
// or unknown.
func (p *PriceIndex) Storage(id *string) float64 {
	if p == nil || id == nil {
		return 0
	}
	return p.storages[*id]
}

// Len returns the number of indexed garages and storage rooms.
func (p *PriceIndex) Len() (garages, storages int) {
	return len(p.garages), len(p.storages)
}
