package catalog

import (
	"fmt"

	"github.com/avelouis/backend-linkgen/internal/payment"
	"github.com/avelouis/backend-linkgen/internal/pricing"
)

// UnknownProduct is the placeholder label component for prices whose product
// record carries no name.
const UnknownProduct = "Unknown Product"

// Entry is a display-ready view of one active price.
type Entry struct {
	Label           string `json:"label"`
	PriceID         string `json:"priceId"`
	UnitAmountMinor int64  `json:"unitAmountMinor"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Mode            string `json:"mode"`
	Interval        string `json:"interval,omitempty"`
}

// Catalog is an ordered list of entries plus label and price-id lookup
// indexes. Order follows the remote listing.
type Catalog struct {
	Entries []Entry

	byLabel   map[string]Entry
	byPriceID map[string]Entry
}

// ByLabel resolves an entry by its display label.
func (c Catalog) ByLabel(label string) (Entry, bool) {
	e, ok := c.byLabel[label]
	return e, ok
}

// ByPriceID resolves an entry by the remote price identifier.
func (c Catalog) ByPriceID(id string) (Entry, bool) {
	e, ok := c.byPriceID[id]
	return e, ok
}

// Len reports the number of entries.
func (c Catalog) Len() int { return len(c.Entries) }

// Normalize transforms raw price records into a display-ready catalog. The
// function is pure: identical input yields identical output. Labels that
// would collide are disambiguated with the price id suffix instead of
// silently overwriting one another.
func Normalize(prices []payment.PriceRecord) Catalog {
	catalog := Catalog{
		Entries:   make([]Entry, 0, len(prices)),
		byLabel:   make(map[string]Entry, len(prices)),
		byPriceID: make(map[string]Entry, len(prices)),
	}
	for _, p := range prices {
		entry := toEntry(p)
		if _, taken := catalog.byLabel[entry.Label]; taken {
			entry.Label = fmt.Sprintf("%s [%s]", entry.Label, entry.PriceID)
		}
		catalog.Entries = append(catalog.Entries, entry)
		catalog.byLabel[entry.Label] = entry
		catalog.byPriceID[entry.PriceID] = entry
	}
	return catalog
}

func toEntry(p payment.PriceRecord) Entry {
	amount := pricing.FromMinorUnits(p.UnitAmountMinor).StringFixed(2)

	name := p.ProductName
	if name == "" {
		name = UnknownProduct
	}

	mode := payment.ModePayment
	interval := ""
	label := fmt.Sprintf("%s (%s %s)", name, amount, p.Currency)
	if p.Type == payment.PriceTypeRecurring {
		mode = payment.ModeSubscription
		interval = p.RecurringInterval
		label = fmt.Sprintf("%s (%s %s/%s)", name, amount, p.Currency, interval)
	}

	return Entry{
		Label:           label,
		PriceID:         p.ID,
		UnitAmountMinor: p.UnitAmountMinor,
		Amount:          amount,
		Currency:        p.Currency,
		Mode:            mode,
		Interval:        interval,
	}
}
