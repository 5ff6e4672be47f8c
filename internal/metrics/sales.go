package metrics

import (
	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// SalesPerformance summarizes unit sales.
type SalesPerformance struct {
	TotalUnits      int           `json:"total_units"`
	AvailableUnits  int           `json:"available_units"`
	ReservedUnits   int           `json:"reserved_units"`
	SoldUnits       int           `json:"sold_units"`
	SalesRate       float64       `json:"sales_rate"`
	TotalRevenue    float64       `json:"total_revenue"`
	AvgSalePrice    float64       `json:"avg_sale_price"`
	TotalCustomers  int           `json:"total_customers"`
	Buyers          int           `json:"buyers"`
	ConversionRate  float64       `json:"conversion_rate"`
	SalesInRange    int           `json:"sales_in_range"`
	RevenueInRange  float64       `json:"revenue_in_range"`
	ByKind          []UnitKindRow `json:"by_kind"`
	ByPaymentMethod []Breakdown   `json:"by_payment_method"`
}

// UnitKindRow is the sales position of one unit kind.
type UnitKindRow struct {
	Kind      model.UnitKind `json:"kind"`
	Total     int            `json:"total"`
	Sold      int            `json:"sold"`
	SalesRate float64        `json:"sales_rate"`
	Revenue   float64        `json:"revenue"`
}

var unitKinds = []model.UnitKind{model.UnitApartment, model.UnitGarage, model.UnitStorage}

// ComputeSalesPerformance computes the sales performance group.
func ComputeSalesPerformance(in Input) SalesPerformance {
	s := SalesPerformance{
		TotalCustomers: len(in.Snap.Customers),
		Buyers:         buyers(in),
		TotalRevenue:   in.Facts.TotalRevenue(),
	}

	kinds := make(map[model.UnitKind]*UnitKindRow, len(unitKinds))
	rows := make([]UnitKindRow, len(unitKinds))
	for i, k := range unitKinds {
		rows[i].Kind = k
		kinds[k] = &rows[i]
	}

	for _, u := range in.Facts.Units {
		s.TotalUnits++
		switch u.Status {
		case model.UnitAvailable:
			s.AvailableUnits++
		case model.UnitReserved:
			s.ReservedUnits++
		case model.UnitSold:
			s.SoldUnits++
		}
		if r := kinds[u.Kind]; r != nil {
			r.Total++
			if u.Status == model.UnitSold {
				r.Sold++
			}
		}
	}

	revenueByKind := make(map[model.UnitKind]*aggregate.Sum)
	methods := newBreakdown()
	var inRange aggregate.Sum
	for _, sale := range in.Facts.Sales {
		if revenueByKind[sale.Kind] == nil {
			revenueByKind[sale.Kind] = &aggregate.Sum{}
		}
		revenueByKind[sale.Kind].Add(sale.Revenue)
		methods.add(or(sale.PaymentMethod, unassigned), sale.Revenue)
		if in.Range.Contains(sale.Date) {
			s.SalesInRange++
			inRange.Add(sale.Revenue)
		}
	}
	for i := range rows {
		rows[i].SalesRate = aggregate.PercentOf(rows[i].Sold, rows[i].Total)
		if sum := revenueByKind[rows[i].Kind]; sum != nil {
			rows[i].Revenue = sum.Float()
		}
	}

	s.SalesRate = aggregate.PercentOf(s.SoldUnits, s.TotalUnits)
	s.AvgSalePrice = roundMoney(aggregate.Ratio(s.TotalRevenue, float64(s.SoldUnits)))
	s.ConversionRate = aggregate.PercentOf(s.Buyers, s.TotalCustomers)
	s.RevenueInRange = inRange.Float()
	s.ByKind = rows
	s.ByPaymentMethod = methods.list()
	return s
}

// BuildingsUnits summarizes buildings and unit inventory.
type BuildingsUnits struct {
	Buildings      int           `json:"buildings"`
	Apartments     int           `json:"apartments"`
	Garages        int           `json:"garages"`
	Storages       int           `json:"storages"`
	TotalArea      float64       `json:"total_area"`
	SoldArea       float64       `json:"sold_area"`
	AvgPricePerSqm float64       `json:"avg_price_per_sqm"`
	LinkedGarages  int           `json:"linked_garages"`
	LinkedStorages int           `json:"linked_storages"`
	Rows           []BuildingRow `json:"rows"`
}

// BuildingRow is the inventory of one building.
type BuildingRow struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ProjectID string  `json:"project_id"`
	Units     int     `json:"units"`
	Sold      int     `json:"sold"`
	SalesRate float64 `json:"sales_rate"`
}

// ComputeBuildingsUnits computes the buildings and units group.
func ComputeBuildingsUnits(in Input) BuildingsUnits {
	b := BuildingsUnits{Buildings: len(in.Snap.Buildings)}

	rows := make([]BuildingRow, len(in.Snap.Buildings))
	byID := make(map[string]*BuildingRow, len(rows))
	for i, bl := range in.Snap.Buildings {
		rows[i] = BuildingRow{ID: bl.ID, Name: bl.Name, ProjectID: bl.ProjectID}
		byID[bl.ID] = &rows[i]
	}

	var area, sold aggregate.Sum
	for _, u := range in.Facts.Units {
		switch u.Kind {
		case model.UnitApartment:
			b.Apartments++
		case model.UnitGarage:
			b.Garages++
		case model.UnitStorage:
			b.Storages++
		}
		if u.GarageID != nil {
			b.LinkedGarages++
		}
		if u.StorageID != nil {
			b.LinkedStorages++
		}
		area.Add(u.Area)
		if u.Status == model.UnitSold {
			sold.Add(u.Area)
		}
		if u.BuildingID != nil {
			if r := byID[*u.BuildingID]; r != nil {
				r.Units++
				if u.Status == model.UnitSold {
					r.Sold++
				}
			}
		}
	}
	for i := range rows {
		rows[i].SalesRate = aggregate.PercentOf(rows[i].Sold, rows[i].Units)
	}

	b.TotalArea = area.Float()
	b.SoldArea = sold.Float()
	b.AvgPricePerSqm = avgPricePerSqm(in.Facts.Units)
	b.Rows = rows
	return b
}
