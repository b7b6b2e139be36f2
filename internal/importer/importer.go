// Package importer loads sales, inventory, vine and search volume exports
// into the store. Files are CSV renderings of the planning workbook sheets.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// Kind is the sheet a file was exported from.
type Kind string

const (
	KindUnitsSold    Kind = "units_sold"
	KindFBAInventory Kind = "fba_inventory"
	KindAWDInventory Kind = "awd_inventory"
	KindVineClaims   Kind = "vine_claims"
	KindSearchVolume Kind = "search_volume"
)

// ErrUnknownKind is returned for files whose name matches no sheet.
var ErrUnknownKind = errors.New("unknown import file")

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006", "1/2/2006"}

// KindOf classifies a file by its name.
func KindOf(path string) (Kind, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "units_sold"), strings.Contains(name, "sales"):
		return KindUnitsSold, nil
	case strings.Contains(name, "fba"):
		return KindFBAInventory, nil
	case strings.Contains(name, "awd"):
		return KindAWDInventory, nil
	case strings.Contains(name, "vine"):
		return KindVineClaims, nil
	case strings.Contains(name, "search_volume"), strings.Contains(name, "keyword"), strings.Contains(name, "seasonality"):
		return KindSearchVolume, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, path)
}

// Result counts imported rows.
type Result struct {
	Files        int `json:"files"`
	Products     int `json:"products"`
	UnitsSold    int `json:"units_sold"`
	Inventory    int `json:"inventory"`
	VineClaims   int `json:"vine_claims"`
	SearchVolume int `json:"search_volume"`
}

type inventoryKey struct {
	asin string
	date time.Time
}

type weekKey struct {
	asin    string
	weekEnd time.Time
}

// Importer accumulates parsed files and writes them in one Flush. FBA and
// AWD rows for the same product and date merge into one snapshot.
type Importer struct {
	store repository.Ingester
	now   func() time.Time

	products  map[string]domain.Product
	unitsSold []domain.UnitsSold
	inventory map[inventoryKey]*domain.Inventory
	vine      map[weekKey]float64
	search    []domain.SearchVolume
	files     int
}

func New(store repository.Ingester) *Importer {
	im := &Importer{store: store, now: time.Now}
	im.reset()
	return im
}

func (im *Importer) reset() {
	im.products = make(map[string]domain.Product)
	im.unitsSold = nil
	im.inventory = make(map[inventoryKey]*domain.Inventory)
	im.vine = make(map[weekKey]float64)
	im.search = nil
	im.files = 0
}

// ImportDir parses every CSV file under dir and flushes the result. Files
// with unrecognised names are skipped.
func (im *Importer) ImportDir(ctx context.Context, dir string) (Result, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := im.ImportFile(path); err != nil {
			if errors.Is(err, ErrUnknownKind) {
				log.Warn().Str("file", path).Msg("import: skipping unrecognised file")
				continue
			}
			return Result{}, err
		}
	}

	return im.Flush(ctx)
}

func (im *Importer) ImportFile(path string) error {
	kind, err := KindOf(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	if err := im.Parse(kind, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("file", path).Str("kind", string(kind)).Msg("import: parsed")
	return nil
}

// Parse reads one file of the given kind into the pending batch.
func (im *Importer) Parse(kind Kind, r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	switch kind {
	case KindUnitsSold:
		err = im.parseUnitsSold(rows)
	case KindFBAInventory:
		err = im.parseFBAInventory(rows)
	case KindAWDInventory:
		err = im.parseAWDInventory(rows)
	case KindVineClaims:
		err = im.parseVineClaims(rows)
	case KindSearchVolume:
		err = im.parseSearchVolume(rows)
	default:
		return fmt.Errorf("%w: kind %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return err
	}
	im.files++
	return nil
}

// Flush writes the pending batch and clears it.
func (im *Importer) Flush(ctx context.Context) (Result, error) {
	defer im.reset()

	res := Result{Files: im.files}

	asins := make([]string, 0, len(im.products))
	for asin := range im.products {
		asins = append(asins, asin)
	}
	sort.Strings(asins)
	for _, asin := range asins {
		if err := im.store.UpsertProduct(ctx, im.products[asin]); err != nil {
			return res, err
		}
		res.Products++
	}

	if err := im.store.UpsertUnitsSold(ctx, im.unitsSold); err != nil {
		return res, err
	}
	res.UnitsSold = len(im.unitsSold)

	vine := make([]domain.VineClaim, 0, len(im.vine))
	for k, units := range im.vine {
		vine = append(vine, domain.VineClaim{ASIN: k.asin, WeekEnd: k.weekEnd, Units: units})
	}
	sort.Slice(vine, func(i, j int) bool {
		if vine[i].ASIN != vine[j].ASIN {
			return vine[i].ASIN < vine[j].ASIN
		}
		return vine[i].WeekEnd.Before(vine[j].WeekEnd)
	})
	if err := im.store.UpsertVineClaims(ctx, vine); err != nil {
		return res, err
	}
	res.VineClaims = len(vine)

	if err := im.store.UpsertSearchVolume(ctx, im.search); err != nil {
		return res, err
	}
	res.SearchVolume = len(im.search)

	for _, inv := range im.inventory {
		if err := im.store.UpsertInventory(ctx, *inv); err != nil {
			return res, err
		}
		res.Inventory++
	}

	log.Info().
		Int("files", res.Files).
		Int("products", res.Products).
		Int("units_sold", res.UnitsSold).
		Int("inventory", res.Inventory).
		Int("vine_claims", res.VineClaims).
		Int("search_volume", res.SearchVolume).
		Msg("import: flushed")

	return res, nil
}

func (im *Importer) addProduct(asin, name string) {
	p := im.products[asin]
	p.ASIN = asin
	if name != "" {
		p.Name = name
	}
	im.products[asin] = p
}

// parseUnitsSold reads the wide sheet: ASIN, product name, size, then one
// column per week-end date.
func (im *Importer) parseUnitsSold(rows [][]string) error {
	head := rows[0]
	type weekCol struct {
		col     int
		weekEnd time.Time
	}
	var weeks []weekCol
	for i := 1; i < len(head); i++ {
		if d, ok := parseDate(head[i]); ok {
			weeks = append(weeks, weekCol{col: i, weekEnd: d})
		}
	}
	if len(weeks) == 0 {
		return fmt.Errorf("units sold: no week columns in header")
	}

	for _, row := range rows[1:] {
		asin := cell(row, 0)
		if asin == "" {
			continue
		}
		im.addProduct(asin, cell(row, 1))
		for _, w := range weeks {
			im.unitsSold = append(im.unitsSold, domain.UnitsSold{
				ASIN:    asin,
				WeekEnd: w.weekEnd,
				Units:   parseNumber(cell(row, w.col)),
			})
		}
	}
	return nil
}

func (im *Importer) parseFBAInventory(rows [][]string) error {
	h := headerIndex(rows[0])
	asinCol, ok := h.col("asin")
	if !ok {
		return fmt.Errorf("fba inventory: missing asin column")
	}

	for _, row := range rows[1:] {
		asin := cell(row, asinCol)
		if asin == "" {
			continue
		}
		im.addProduct(asin, h.value(row, "product_name"))

		inv := im.snapshot(asin, h.value(row, "snapshot_date"))
		inv.FBAAvailable = parseNumber(h.value(row, "available", "afn_fulfillable_quantity"))
		inv.FBAReserved = parseNumber(h.value(row, "reserved", "reserved_quantity", "pending_removal_quantity"))
		inv.FBAInbound = parseNumber(h.value(row, "inbound", "inbound_quantity", "inbound_shipped"))
	}
	return nil
}

func (im *Importer) parseAWDInventory(rows [][]string) error {
	// The AWD report carries a few banner lines before the header row.
	start := 0
	for i, row := range rows {
		if _, ok := headerIndex(row).col("asin"); ok {
			start = i
			break
		}
	}
	h := headerIndex(rows[start])
	asinCol, ok := h.col("asin")
	if !ok {
		return fmt.Errorf("awd inventory: missing asin column")
	}

	for _, row := range rows[start+1:] {
		asin := cell(row, asinCol)
		if asin == "" {
			continue
		}
		im.addProduct(asin, h.value(row, "product_name"))

		inv := im.snapshot(asin, h.value(row, "snapshot_date"))
		inv.AWDAvailable = parseNumber(h.value(row, "available_in_awd_units", "available"))
		inv.AWDReserved = parseNumber(h.value(row, "reserved_in_awd_units", "reserved"))
		inv.AWDInbound = parseNumber(h.value(row, "inbound_to_awd_units", "inbound"))
		inv.AWDOutboundToFBA = parseNumber(h.value(row, "outbound_to_fba_units", "outbound_to_fba"))
	}
	return nil
}

// parseVineClaims sums dated claims into the week that contains them.
func (im *Importer) parseVineClaims(rows [][]string) error {
	h := headerIndex(rows[0])
	if _, ok := h.col("asin"); !ok {
		return fmt.Errorf("vine claims: missing asin column")
	}

	for _, row := range rows[1:] {
		asin := h.value(row, "asin")
		if asin == "" {
			continue
		}
		d, ok := parseDate(h.value(row, "date", "claim_date"))
		if !ok {
			continue
		}
		im.addProduct(asin, h.value(row, "product", "product_name"))

		key := weekKey{asin: asin, weekEnd: forecast.WeekEnd(forecast.WeekOf(d))}
		im.vine[key] += parseNumber(h.value(row, "units_claimed", "units"))
	}
	return nil
}

func (im *Importer) parseSearchVolume(rows [][]string) error {
	h := headerIndex(rows[0])
	if _, ok := h.col("asin"); !ok {
		return fmt.Errorf("search volume: missing asin column")
	}

	for _, row := range rows[1:] {
		asin := h.value(row, "asin")
		d, ok := parseDate(h.value(row, "week_end", "week", "date"))
		if asin == "" || !ok {
			continue
		}
		im.addProduct(asin, "")
		im.search = append(im.search, domain.SearchVolume{
			ASIN:    asin,
			WeekEnd: d,
			Volume:  parseNumber(h.value(row, "search_volume", "volume")),
		})
	}
	return nil
}

// snapshot returns the pending snapshot for asin on the given date, which
// defaults to today when the file carries none.
func (im *Importer) snapshot(asin, rawDate string) *domain.Inventory {
	d, ok := parseDate(rawDate)
	if !ok {
		now := im.now().UTC()
		d = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	key := inventoryKey{asin: asin, date: d}
	inv, ok := im.inventory[key]
	if !ok {
		inv = &domain.Inventory{ASIN: asin, SnapshotDate: d}
		im.inventory[key] = inv
	}
	return inv
}

type header map[string]int

func headerIndex(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		key := normalizeHeader(name)
		if _, dup := h[key]; key != "" && !dup {
			h[key] = i
		}
	}
	return h
}

func (h header) col(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func (h header) value(row []string, names ...string) string {
	i, ok := h.col(names...)
	if !ok {
		return ""
	}
	return cell(row, i)
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	s = strings.NewReplacer("-", "_", " ", "_", "(", "", ")", "").Replace(s)
	return s
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseNumber reads spreadsheet numbers, treating blanks and text as zero.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
