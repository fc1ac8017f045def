// Package model defines the record shapes flowing through the registry pipeline.
package model

import "fmt"

// SupplyChainRecord is a source-1 row: the supply-chain view of a corporation.
type SupplyChainRecord struct {
	ExternalID        string   `json:"externalId,omitempty"`
	CompanyName       string   `json:"company_name"`
	Address           string   `json:"address"`
	ActivityLocations []string `json:"activity_locations"`
	TopSuppliers      []string `json:"top_suppliers"`
}

// FinancialRecord is a source-2 row: the financial view of a corporation.
type FinancialRecord struct {
	ExternalID    string   `json:"externalId,omitempty"`
	Corporation   string   `json:"corporation"`
	MainCustomers []string `json:"main_customers"`
	Revenue       float64  `json:"revenue"`
	Profit        float64  `json:"profit"`
}

// UnifiedRecord is the harmonized shape after cross-source entity resolution.
// HasSupplyChain/HasFinancial indicate which sides contributed; an unmatched
// side leaves its fields null-filled when the join policy keeps the row.
type UnifiedRecord struct {
	CanonicalName     string   `json:"canonical_name"`
	Address           string   `json:"address"`
	ActivityLocations []string `json:"activity_locations"`
	TopSuppliers      []string `json:"top_suppliers"`
	MainCustomers     []string `json:"main_customers"`
	Revenue           float64  `json:"revenue"`
	Profit            float64  `json:"profit"`
	ProfitMargin      float64  `json:"profit_margin"`

	MatchedBy      string  `json:"matchedBy,omitempty"` // "exact", "fuzzy" or "" when unmatched
	MatchScore     float32 `json:"matchScore,omitempty"`
	HasSupplyChain bool    `json:"hasSupplyChain"`
	HasFinancial   bool    `json:"hasFinancial"`
}

// RowIssue flags a row-level data-quality problem. Issues accumulate on stage
// results instead of aborting the batch.
type RowIssue struct {
	Source string `json:"source"` // "source1", "source2", "unified"
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (i RowIssue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("%s[%d].%s: %s", i.Source, i.Row, i.Field, i.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", i.Source, i.Row, i.Reason)
}
