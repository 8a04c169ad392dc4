package currency

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBase is the currency every stored rate is expressed against
const DefaultBase = "USD"

// Info is the display metadata of a currency
type Info struct {
	Code          string
	Name          string
	Symbol        string
	SymbolNative  string
	DecimalDigits int
	Rounding      decimal.Decimal
}

// Seed is a catalog entry with its fallback USD rate
type Seed struct {
	Info
	Rate decimal.Decimal
}

func seed(code, name, symbol, native string, digits int, rounding, rate string) Seed {
	return Seed{
		Info: Info{
			Code:          code,
			Name:          name,
			Symbol:        symbol,
			SymbolNative:  native,
			DecimalDigits: digits,
			Rounding:      decimal.RequireFromString(rounding),
		},
		Rate: decimal.RequireFromString(rate),
	}
}

var catalog = []Seed{
	seed("USD", "US Dollar", "$", "$", 2, "0", "1"),
	seed("CAD", "Canadian Dollar", "CA$", "$", 2, "0", "1.44"),
	seed("EUR", "Euro", "€", "€", 2, "0", "0.96"),
	seed("MXN", "Mexican Peso", "MX$", "$", 2, "0", "20.14"),
	seed("GBP", "British Pound Sterling", "£", "£", 2, "0", "0.796"),
	seed("JPY", "Japanese Yen", "¥", "￥", 0, "0", "156.48"),
	seed("CNY", "Chinese Yuan", "CN¥", "CN¥", 2, "0", "7.3"),
	seed("CHF", "Swiss Franc", "CHF", "CHF", 2, "0.05", "0.893"),
	seed("AUD", "Australian Dollar", "AU$", "$", 2, "0", "1.6"),
	seed("BRL", "Brazilian Real", "R$", "R$", 2, "0", "6.12"),
	seed("ARS", "Argentine Peso", "AR$", "$", 2, "0", "1025.42"),
	seed("CLP", "Chilean Peso", "CL$", "$", 0, "0", "992.17"),
	seed("COP", "Colombian Peso", "CO$", "$", 0, "0", "4385.63"),
	seed("PEN", "Peruvian Nuevo Sol", "S/.", "S/.", 2, "0", "3.73"),
	seed("INR", "Indian Rupee", "Rs", "₹", 2, "0", "85.06"),
	seed("KRW", "South Korean Won", "₩", "₩", 0, "0", "1445.65"),
	seed("SEK", "Swedish Krona", "Skr", "kr", 2, "0", "11.04"),
	seed("NOK", "Norwegian Krone", "Nkr", "kr", 2, "0", "11.35"),
	seed("DKK", "Danish Krone", "Dkr", "kr", 2, "0", "7.16"),
	seed("PLN", "Polish Zloty", "zł", "zł", 2, "0", "4.1"),
	seed("CZK", "Czech Republic Koruna", "Kč", "Kč", 2, "0", "24.16"),
	seed("HUF", "Hungarian Forint", "Ft", "Ft", 0, "0", "398.06"),
	seed("ZAR", "South African Rand", "R", "R", 2, "0", "18.33"),
	seed("NZD", "New Zealand Dollar", "NZ$", "$", 2, "0", "1.77"),
	seed("SGD", "Singapore Dollar", "S$", "$", 2, "0", "1.36"),
	seed("HKD", "Hong Kong Dollar", "HK$", "$", 2, "0", "7.77"),
	seed("TRY", "Turkish Lira", "TL", "TL", 2, "0", "35.2"),
	seed("AED", "United Arab Emirates Dirham", "AED", "د.إ", 2, "0", "3.67"),
	seed("SAR", "Saudi Riyal", "SR", "ر.س", 2, "0", "3.75"),
	seed("ILS", "Israeli New Sheqel", "₪", "₪", 2, "0", "3.65"),
}

// Catalog returns the seeded currencies sorted by code
func Catalog() []Seed {
	out := make([]Seed, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Lookup returns the catalog metadata of code
func Lookup(code string) (Info, bool) {
	for _, s := range catalog {
		if s.Code == code {
			return s.Info, true
		}
	}
	return Info{}, false
}

// StaticFeed serves the catalog's fallback rates. Used in development and as the
// last resort when no live feed is configured.
type StaticFeed struct {
	Now func() time.Time
}

// FetchRates returns the catalog rates against DefaultBase
func (f StaticFeed) FetchRates(ctx context.Context) (*Rates, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	rates := make(map[string]decimal.Decimal, len(catalog))
	for _, s := range catalog {
		rates[s.Code] = s.Rate
	}
	return NewRates(DefaultBase, rates, now()), nil
}
