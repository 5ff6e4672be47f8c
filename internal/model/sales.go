// Package model defines the raw portfolio entities read from the data
// access gateway. Records are flat: relations are foreign ids and optional
// relations are pointers.
package model

import "time"

// ProjectStatus is the lifecycle state of a development project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// UnitKind distinguishes sellable apartments from linkable sub-assets.
type UnitKind string

const (
	UnitApartment UnitKind = "apartment"
	UnitGarage    UnitKind = "garage"
	UnitStorage   UnitKind = "storage"
)

// UnitStatus is the sales state of a unit.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitSold      UnitStatus = "sold"
)

// Project is a real-estate development project.
type Project struct {
	ID        string        `json:"id" yaml:"id" db:"id"`
	Name      string        `json:"name" yaml:"name" db:"name"`
	Location  string        `json:"location" yaml:"location" db:"location"`
	Status    ProjectStatus `json:"status" yaml:"status" db:"status"`
	Budget    float64       `json:"budget" yaml:"budget" db:"budget"`
	StartDate *time.Time    `json:"start_date,omitempty" yaml:"start_date,omitempty" db:"start_date"`
	EndDate   *time.Time    `json:"end_date,omitempty" yaml:"end_date,omitempty" db:"end_date"`
}

// Building belongs to a project and groups units.
type Building struct {
	ID        string `json:"id" yaml:"id" db:"id"`
	ProjectID string `json:"project_id" yaml:"project_id" db:"project_id"`
	Name      string `json:"name" yaml:"name" db:"name"`
	Floors    int    `json:"floors" yaml:"floors" db:"floors"`
}

// Unit is an apartment, garage or storage room. An apartment may link one
// garage unit and one storage unit whose prices are added to its sale.
type Unit struct {
	ID         string     `json:"id" yaml:"id" db:"id"`
	ProjectID  string     `json:"project_id" yaml:"project_id" db:"project_id"`
	BuildingID *string    `json:"building_id,omitempty" yaml:"building_id,omitempty" db:"building_id"`
	Floor      int        `json:"floor" yaml:"floor" db:"floor"`
	Number     string     `json:"number" yaml:"number" db:"number"`
	Kind       UnitKind   `json:"kind" yaml:"kind" db:"kind"`
	Area       float64    `json:"area" yaml:"area" db:"area"`
	Price      float64    `json:"price" yaml:"price" db:"price"`
	Status     UnitStatus `json:"status" yaml:"status" db:"status"`
	GarageID   *string    `json:"garage_id,omitempty" yaml:"garage_id,omitempty" db:"garage_id"`
	StorageID  *string    `json:"storage_id,omitempty" yaml:"storage_id,omitempty" db:"storage_id"`
}

// Customer is a (prospective) buyer.
type Customer struct {
	ID     string `json:"id" yaml:"id" db:"id"`
	Name   string `json:"name" yaml:"name" db:"name"`
	Email  string `json:"email" yaml:"email" db:"email"`
	Status string `json:"status" yaml:"status" db:"status"`
}

// Sale records the sale of one unit.
type Sale struct {
	ID            string    `json:"id" yaml:"id" db:"id"`
	UnitID        string    `json:"unit_id" yaml:"unit_id" db:"unit_id"`
	CustomerID    *string   `json:"customer_id,omitempty" yaml:"customer_id,omitempty" db:"customer_id"`
	SalePrice     float64   `json:"sale_price" yaml:"sale_price" db:"sale_price"`
	PaymentMethod string    `json:"payment_method" yaml:"payment_method" db:"payment_method"`
	DownPayment   float64   `json:"down_payment" yaml:"down_payment" db:"down_payment"`
	SaleDate      time.Time `json:"sale_date" yaml:"sale_date" db:"sale_date"`
}
