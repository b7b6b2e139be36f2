// backend-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
)

// Product is a sellable item identified by its ASIN
type Product struct {
	ASIN      string    `json:"asin" db:"asin"`
	SKU       string    `json:"sku" db:"sku"`
	Name      string    `json:"name" db:"name"`
	Brand     string    `json:"brand" db:"brand"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UnitsSold is one week of sold units for a product. WeekEnd is the last
// day of the reporting week as it appears in the sales export.
type UnitsSold struct {
	ASIN    string    `json:"asin" db:"asin"`
	WeekEnd time.Time `json:"week_end" db:"week_end"`
	Units   float64   `json:"units" db:"units"`
}

// VineClaim is units shipped through the Vine review program in a week.
type VineClaim struct {
	ASIN    string    `json:"asin" db:"asin"`
	WeekEnd time.Time `json:"week_end" db:"week_end"`
	Units   float64   `json:"units" db:"units"`
}

// SearchVolume is the weekly keyword search volume attributed to a product.
type SearchVolume struct {
	ASIN    string    `json:"asin" db:"asin"`
	WeekEnd time.Time `json:"week_end" db:"week_end"`
	Volume  float64   `json:"volume" db:"volume"`
}

// Inventory is an FBA/AWD inventory snapshot
type Inventory struct {
	ASIN             string    `json:"asin" db:"asin"`
	SnapshotDate     time.Time `json:"snapshot_date" db:"snapshot_date"`
	FBAAvailable     float64   `json:"fba_available" db:"fba_available"`
	FBAReserved      float64   `json:"fba_reserved" db:"fba_reserved"`
	FBAInbound       float64   `json:"fba_inbound" db:"fba_inbound"`
	AWDAvailable     float64   `json:"awd_available" db:"awd_available"`
	AWDReserved      float64   `json:"awd_reserved" db:"awd_reserved"`
	AWDInbound       float64   `json:"awd_inbound" db:"awd_inbound"`
	AWDOutboundToFBA float64   `json:"awd_outbound_to_fba" db:"awd_outbound_to_fba"`
}

// ToSnapshot converts the row into the engine's inventory snapshot.
func (i Inventory) ToSnapshot() forecast.InventorySnapshot {
	return forecast.InventorySnapshot{
		AsOfWeek:         forecast.WeekOf(i.SnapshotDate),
		FBAAvailable:     i.FBAAvailable,
		FBAReserved:      i.FBAReserved,
		FBAInbound:       i.FBAInbound,
		AWDAvailable:     i.AWDAvailable,
		AWDReserved:      i.AWDReserved,
		AWDInbound:       i.AWDInbound,
		AWDOutboundToFBA: i.AWDOutboundToFBA,
	}
}

// FBAOnHand is the inventory already sellable or on its way into FBA.
func (i Inventory) FBAOnHand() float64 {
	return i.FBAAvailable + i.FBAReserved + i.FBAInbound
}

// Seasonality source values
const (
	SourceSearchVolume = "search_volume"
	SourceSales        = "sales"
	SourceOverride     = "override"
)

// SeasonalityRecord is the stored seasonality profile of a product
type SeasonalityRecord struct {
	ASIN      string           `json:"asin"`
	Source    string           `json:"source"`
	Profile   forecast.Profile `json:"profile"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DefaultSettingsName is the settings record used when none is named.
const DefaultSettingsName = "default"

// ForecastSetting is a named, stored set of forecast settings
type ForecastSetting struct {
	Name      string            `json:"name"`
	Settings  forecast.Settings `json:"settings"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ForecastRun identifies one persisted recomputation.
type ForecastRun struct {
	ID                  string    `json:"id" db:"id"`
	AsOfWeek            int       `json:"as_of_week" db:"as_of_week"`
	SettingsFingerprint string    `json:"settings_fingerprint" db:"settings_fingerprint"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// ForecastRecord is one persisted forecast week.
type ForecastRecord struct {
	RunID   string    `json:"run_id" db:"run_id"`
	ASIN    string    `json:"asin" db:"asin"`
	WeekEnd time.Time `json:"week_end" db:"week_end"`
	Offset  int       `json:"offset" db:"week_offset"`
	Units   float64   `json:"units" db:"units"`
	Tier    string    `json:"tier" db:"tier"`
	Clamped bool      `json:"clamped" db:"clamped"`
}

// ForecastReport bundles the full analysis of one product.
type ForecastReport struct {
	Product     Product                `json:"product"`
	AsOfWeek    int                    `json:"as_of_week"`
	AsOfDate    time.Time              `json:"as_of_date"`
	Source      string                 `json:"seasonality_source"`
	Seasonality forecast.Profile       `json:"seasonality"`
	Forecast    forecast.Result        `json:"forecast"`
	Inventory   *Inventory             `json:"inventory,omitempty"`
	DOI         forecast.DOIProjection `json:"doi"`
	FBADOI      forecast.DOIProjection `json:"fba_doi"`
	Plan        forecast.Plan          `json:"production_plan"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// RecomputeSummary reports a batch recomputation.
type RecomputeSummary struct {
	RunID        string            `json:"run_id"`
	AsOfWeek     int               `json:"as_of_week"`
	Products     int               `json:"products"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	ClampedWeeks int               `json:"clamped_weeks"`
	Errors       map[string]string `json:"errors,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}
