package filings

// FilingRecord is one organization-year of financial data, flattened
// from a filing-history document. EIN+Year is unique; records are
// immutable once flattened.
type FilingRecord struct {
	EIN     string `json:"ein"`
	OrgName string `json:"org_name"`
	Year    int    `json:"year"`

	Revenue       *float64 `json:"revenue,omitempty"`
	Expenses      *float64 `json:"expenses,omitempty"`
	Assets        *float64 `json:"assets,omitempty"`
	ProgramRev    *float64 `json:"program_revenue,omitempty"`
	Contributions *float64 `json:"contributions,omitempty"`

	// ProgramPct is program revenue as a percentage of total revenue,
	// nil when revenue is missing or non-positive.
	ProgramPct *float64 `json:"program_pct,omitempty"`
}

// HasFinancials reports whether the record carries at least one
// non-nil financial metric.
func (r FilingRecord) HasFinancials() bool {
	for _, v := range []*float64{r.Revenue, r.Expenses, r.Assets, r.ProgramRev, r.Contributions} {
		if v != nil && *v != 0 {
			return true
		}
	}
	return false
}

// Document is a filing-history document as returned by the remote API
type Document struct {
	Organization struct {
		Name string `json:"name"`
	} `json:"organization"`
	FilingsWithData []Filing `json:"filings_with_data"`
	Error           string   `json:"error,omitempty"`
}

// NotFound reports whether the document is a not-found marker
func (d Document) NotFound() bool {
	return d.Error == "Not Found"
}

// Filing is a single year's filing inside a Document
type Filing struct {
	TaxPeriodYear  int      `json:"tax_prd_yr"`
	TotalRevenue   *float64 `json:"totrevenue"`
	TotalExpenses  *float64 `json:"totfuncexpns"`
	TotalAssetsEnd *float64 `json:"totassetsend"`
	ProgramRevenue *float64 `json:"totprgmrevnue"`
	Contributions  *float64 `json:"totcntrbgfts"`
}
