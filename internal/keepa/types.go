package keepa

// Offer is one seller's listing snapshot inside a product record.
type Offer struct {
	LastSeen        int64   `json:"lastSeen"`
	SellerID        string  `json:"sellerId"`
	IsFBA           bool    `json:"isFBA"`
	IsPrime         bool    `json:"isPrime"`
	IsAmazon        bool    `json:"isAmazon"`
	IsShippable     bool    `json:"isShippable"`
	IsWarehouseDeal bool    `json:"isWarehouseDeal"`
	IsScam          bool    `json:"isScam"`
	IsPreorder      bool    `json:"isPreorder"`
	IsMAP           bool    `json:"isMAP"`
	Condition       int     `json:"condition"`
	OfferCSV        []int64 `json:"offerCSV"`
	Price           int64   `json:"price"`
}

// Stats carries the aggregate figures Keepa reports alongside offers.
type Stats struct {
	BuyBoxPrice int64 `json:"buyBoxPrice"`
}

// FBAFees is the fee schedule attached to a product. Amounts are in
// currency minor units.
type FBAFees struct {
	PickAndPackFee int64 `json:"pickAndPackFee"`
}

// Product is a point-in-time snapshot of one catalog item. All optional
// payload fields are defaulted by normalize before the snapshot leaves
// this package, so callers never need nil checks.
type Product struct {
	ASIN               string    `json:"asin"`
	LastUpdate         int64     `json:"lastUpdate"`
	MonthlySold        int       `json:"monthlySold"`
	Offers             []Offer   `json:"offers"`
	Stats              *Stats    `json:"stats"`
	FBAFees            *FBAFees  `json:"fbaFees"`
	CSV                [][]int64 `json:"csv"`
	BuyBoxPriceHistory []int64   `json:"buyBoxPriceHistory"`
}

// normalize applies documented defaults for absent payload fields:
// empty offer list, zero-valued stats and fee schedule, empty histories.
func (p *Product) normalize() {
	if p.Offers == nil {
		p.Offers = []Offer{}
	}
	if p.Stats == nil {
		p.Stats = &Stats{}
	}
	if p.FBAFees == nil {
		p.FBAFees = &FBAFees{}
	}
	if p.CSV == nil {
		p.CSV = [][]int64{}
	}
	if p.BuyBoxPriceHistory == nil {
		p.BuyBoxPriceHistory = []int64{}
	}
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// response is the wire shape of a product lookup. Token accounting
// fields are pointers so a missing field is distinguishable from zero.
type response struct {
	Products   []*Product `json:"products"`
	Error      *apiError  `json:"error"`
	TokensLeft *float64   `json:"tokensLeft"`
	RefillIn   *int64     `json:"refillIn"`
	RefillRate *float64   `json:"refillRate"`
}
