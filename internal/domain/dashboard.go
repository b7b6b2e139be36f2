package domain

import "time"

// DashboardRow is the one-line inventory health of a product
type DashboardRow struct {
	ASIN               string     `json:"asin"`
	Name               string     `json:"name"`
	OnHand             float64    `json:"on_hand"`
	FBAOnHand          float64    `json:"fba_on_hand"`
	DaysOfInventory    float64    `json:"days_of_inventory"`
	FBADaysOfInventory float64    `json:"fba_days_of_inventory"`
	RunoutDate         *time.Time `json:"runout_date,omitempty"`
	TargetShipDate     *time.Time `json:"target_ship_date,omitempty"`
	PlanStatus         string     `json:"plan_status"`
	PlanStatusLabel    string     `json:"plan_status_label"`
	Urgent             bool       `json:"urgent"`
	UnitsToMake        float64    `json:"units_to_make"`
	ProductionQuantity float64    `json:"production_quantity"`
	Error              string     `json:"error,omitempty"`
}

// DashboardSummary aggregates every product's row
type DashboardSummary struct {
	AsOfWeek     int            `json:"as_of_week"`
	AsOfDate     time.Time      `json:"as_of_date"`
	Rows         []DashboardRow `json:"rows"`
	RunoutCount  int            `json:"runout_count"`
	UrgentCount  int            `json:"urgent_count"`
	ProductCount int            `json:"product_count"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
