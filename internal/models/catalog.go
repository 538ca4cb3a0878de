package models

import "encoding/xml"

// SentinelPrice marks an entry as withdrawn from sale. An entry priced at the
// sentinel must also carry archived=true and disabled=true.
const SentinelPrice = "100.00"

// Fixed per-entry constants required by the marketplace feed format.
const (
	DefaultCount    = 1
	CurrencyRUR     = "RUR"
	WarrantyOneYear = "P1Y"
)

// Fallback values for entry fields the enrichment call fails to supply.
// Dimensions follow the feed's length/width/height centimeter format and
// weight is in kilograms.
const (
	DefaultCategoryID = "1"
	DefaultDimensions = "10/10/10"
	DefaultWeight     = "0.5"
)

// Catalog is the root of the marketplace product document
// (<yml_catalog date="..."><shop>...</shop></yml_catalog>).
type Catalog struct {
	XMLName xml.Name `xml:"yml_catalog"`
	Date    string   `xml:"date,attr"`
	Shop    Shop     `xml:"shop"`
}

// Shop holds the store metadata, the fixed category table, and the ordered
// list of offers.
type Shop struct {
	Name       string     `xml:"name"`
	Categories []Category `xml:"categories>category"`
	Offers     []Entry    `xml:"offers>offer"`
}

// Category is one row of the fixed id -> name category table.
type Category struct {
	ID   string `xml:"id,attr"`
	Name string `xml:",chardata"`
}

// Entry is a single product offer in the catalog document. Price is kept as
// the literal decimal string written to the feed so that manual overrides
// survive round-trips byte for byte.
type Entry struct {
	ID              string   `xml:"id,attr"`
	Name            string   `xml:"name"`
	Vendor          string   `xml:"vendor"`
	Count           int      `xml:"count"`
	Archived        bool     `xml:"archived"`
	Disabled        bool     `xml:"disabled"`
	Price           string   `xml:"price"`
	CategoryID      string   `xml:"categoryId"`
	CurrencyID      string   `xml:"currencyId"`
	Description     string   `xml:"description"`
	Pictures        []string `xml:"picture"`
	WarrantyDays    string   `xml:"warranty-days"`
	ServiceLifeDays string   `xml:"service-life-days"`
	Dimensions      string   `xml:"dimensions"`
	Weight          string   `xml:"weight"`
}

// IsArchived reports whether the entry is in the withdrawn state.
func (e *Entry) IsArchived() bool {
	return e.Archived && e.Disabled
}

// Archive moves the entry to the withdrawn state: sentinel price plus both
// flags set.
func (e *Entry) Archive() {
	e.Archived = true
	e.Disabled = true
	e.Price = SentinelPrice
}

// Reactivate clears the withdrawn flags; the caller is responsible for
// setting a fresh price afterwards.
func (e *Entry) Reactivate() {
	e.Archived = false
	e.Disabled = false
}

// Entry looks up an offer by identifier and returns its index, or -1.
func (s *Shop) Entry(id string) int {
	for i := range s.Offers {
		if s.Offers[i].ID == id {
			return i
		}
	}
	return -1
}

// DefaultCategories is the fixed category table of the shop. The upstream
// marketplace account defines these ids; they never change between syncs.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Uncategorized"},
		{ID: "2", Name: "СМАРТФОНЫ"},
		{ID: "3", Name: "ПЛАНШЕТЫ"},
		{ID: "4", Name: "ЧАСЫ"},
		{ID: "5", Name: "НАУШНИКИ"},
		{ID: "6", Name: "КОЛОНКИ"},
		{ID: "7", Name: "АКСЕССУАРЫ"},
		{ID: "8", Name: "ИГРОВЫЕ КОНСОЛИ"},
		{ID: "9", Name: "GO PRO"},
		{ID: "10", Name: "ТЕЛЕФОНЫ ПРОТИВОУДАРНЫЕ"},
		{ID: "11", Name: "ТЕЛЕФОНЫ КНОПОЧНЫЕ"},
		{ID: "12", Name: "НОУТБУКИ"},
		{ID: "13", Name: "ФЕН СТАЙЛЕР"},
		{ID: "14", Name: "ПЫЛЕСОСЫ"},
	}
}
