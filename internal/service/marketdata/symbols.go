package marketdata

// PopularSymbol is a curated symbol shown on the market overview page.
type PopularSymbol struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PopularSymbols is the default watchlist for the market overview.
var PopularSymbols = []PopularSymbol{
	{"AAPL", "Apple Inc."},
	{"GOOGL", "Alphabet Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"AMZN", "Amazon.com Inc."},
	{"TSLA", "Tesla Inc."},
	{"META", "Meta Platforms Inc."},
	{"NVDA", "NVIDIA Corporation"},
	{"JPM", "JPMorgan Chase & Co."},
	{"V", "Visa Inc."},
	{"JNJ", "Johnson & Johnson"},
	{"WMT", "Walmart Inc."},
	{"PG", "Procter & Gamble Co."},
	{"UNH", "UnitedHealth Group Inc."},
	{"DIS", "The Walt Disney Company"},
	{"HD", "The Home Depot Inc."},
	{"MA", "Mastercard Inc."},
	{"BAC", "Bank of America Corp."},
	{"NFLX", "Netflix Inc."},
	{"ADBE", "Adobe Inc."},
	{"CRM", "Salesforce Inc."},
}

// PopularName returns the curated display name for symbol, or the symbol
// itself when it is not on the watchlist.
func PopularName(symbol string) string {
	for _, p := range PopularSymbols {
		if p.Symbol == symbol {
			return p.Name
		}
	}
	return symbol
}
