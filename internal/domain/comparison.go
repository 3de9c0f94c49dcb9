package domain

// StorePrice is one price cell of a comparison record
type StorePrice struct {
	Store string `json:"store"`
	// Price is the displayed price; nil when the store has no member or no parseable price
	Price   *float64 `json:"price"`
	OnSale  bool     `json:"onSale"`
	RawName string   `json:"rawName,omitempty"`
}

// ComparisonRecord is the output row for one MatchGroup
type ComparisonRecord struct {
	CanonicalName      string       `json:"canonicalName"`
	Prices             []StorePrice `json:"prices"`
	CheapestStore      string       `json:"cheapestStore,omitempty"`
	MostExpensiveStore string       `json:"mostExpensiveStore,omitempty"`
	Spread             float64      `json:"spread"`
	MemberCount        int          `json:"memberCount"`
}

// PriceFor returns the displayed price of a store, if any
func (r ComparisonRecord) PriceFor(store string) (float64, bool) {
	for _, p := range r.Prices {
		if p.Store == store && p.Price != nil {
			return *p.Price, true
		}
	}
	return 0, false
}

// Clone returns a copy that shares no price cells with r
func (r ComparisonRecord) Clone() ComparisonRecord {
	prices := make([]StorePrice, len(r.Prices))
	for i, p := range r.Prices {
		if p.Price != nil {
			v := *p.Price
			p.Price = &v
		}
		prices[i] = p
	}
	r.Prices = prices
	return r
}

// OnSaleStores lists stores whose displayed price is a sale price
func (r ComparisonRecord) OnSaleStores() []string {
	var stores []string
	for _, p := range r.Prices {
		if p.OnSale {
			stores = append(stores, p.Store)
		}
	}
	return stores
}

// ScoreBreakdown explains a pairwise similarity score
type ScoreBreakdown struct {
	Score        float64  `json:"score"`
	TextRatio    float64  `json:"textRatio"`
	OverlapRatio float64  `json:"overlapRatio"`
	CommonWords  []string `json:"commonWords,omitempty"`
	BrandMatch   bool     `json:"brandMatch"`
	RejectReason string   `json:"rejectReason,omitempty"`
}

// Confirmation is the verdict of a confirmation oracle
type Confirmation struct {
	IsMatch    bool    `json:"isMatch"`
	Confidence float64 `json:"confidence"`
}
