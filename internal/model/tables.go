package model

import (
	"fmt"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/tabular"
)

// Object keys for the two source files; the extension depends on the
// configured format.
const (
	Source1FileStem = "source1_supply_chain"
	Source2FileStem = "source2_financial"
	UnifiedFileStem = "unified_corporate"
)

// SupplyChainSchema describes the source-1 table.
func SupplyChainSchema() *tabular.Schema {
	return &tabular.Schema{Fields: []tabular.Field{
		{Name: "company_name", Kind: tabular.KindString},
		{Name: "address", Kind: tabular.KindString},
		{Name: "activity_locations", Kind: tabular.KindStringList},
		{Name: "top_suppliers", Kind: tabular.KindStringList},
	}}
}

// FinancialSchema describes the source-2 table.
func FinancialSchema() *tabular.Schema {
	return &tabular.Schema{Fields: []tabular.Field{
		{Name: "corporation", Kind: tabular.KindString},
		{Name: "main_customers", Kind: tabular.KindStringList},
		{Name: "revenue", Kind: tabular.KindDouble},
		{Name: "profit", Kind: tabular.KindDouble},
	}}
}

// UnifiedSchema describes the harmonized table.
func UnifiedSchema() *tabular.Schema {
	return &tabular.Schema{Fields: []tabular.Field{
		{Name: "canonical_name", Kind: tabular.KindString},
		{Name: "address", Kind: tabular.KindString},
		{Name: "activity_locations", Kind: tabular.KindStringList},
		{Name: "top_suppliers", Kind: tabular.KindStringList},
		{Name: "main_customers", Kind: tabular.KindStringList},
		{Name: "revenue", Kind: tabular.KindDouble},
		{Name: "profit", Kind: tabular.KindDouble},
		{Name: "profit_margin", Kind: tabular.KindDouble},
	}}
}

// SupplyChainTable converts records to the source-1 table shape.
func SupplyChainTable(records []SupplyChainRecord) *tabular.Table {
	t := tabular.NewTable(SupplyChainSchema())
	for _, r := range records {
		t.Append(tabular.Row{
			"company_name":       r.CompanyName,
			"address":            r.Address,
			"activity_locations": r.ActivityLocations,
			"top_suppliers":      r.TopSuppliers,
		})
	}
	return t
}

// FinancialTable converts records to the source-2 table shape.
func FinancialTable(records []FinancialRecord) *tabular.Table {
	t := tabular.NewTable(FinancialSchema())
	for _, r := range records {
		t.Append(tabular.Row{
			"corporation":    r.Corporation,
			"main_customers": r.MainCustomers,
			"revenue":        r.Revenue,
			"profit":         r.Profit,
		})
	}
	return t
}

// UnifiedTable converts unified records to the harmonized table shape.
func UnifiedTable(records []UnifiedRecord) *tabular.Table {
	t := tabular.NewTable(UnifiedSchema())
	for _, r := range records {
		row := tabular.Row{
			"canonical_name":     r.CanonicalName,
			"address":            r.Address,
			"activity_locations": r.ActivityLocations,
			"top_suppliers":      r.TopSuppliers,
			"main_customers":     r.MainCustomers,
		}
		// An unmatched financial side stays null-filled rather than zero.
		if r.HasFinancial {
			row["revenue"] = r.Revenue
			row["profit"] = r.Profit
			row["profit_margin"] = r.ProfitMargin
		}
		t.Append(row)
	}
	return t
}

// SupplyChainRecords converts a source-1 table back to records, flagging
// malformed rows instead of failing.
func SupplyChainRecords(t *tabular.Table) ([]SupplyChainRecord, []RowIssue) {
	records := make([]SupplyChainRecord, 0, t.NumRows())
	var issues []RowIssue
	for i := range t.Rows {
		rec := SupplyChainRecord{
			CompanyName:       t.StringAt(i, "company_name"),
			Address:           t.StringAt(i, "address"),
			ActivityLocations: t.ListAt(i, "activity_locations"),
			TopSuppliers:      t.ListAt(i, "top_suppliers"),
		}
		if rec.CompanyName == "" {
			issues = append(issues, RowIssue{Source: "source1", Row: i, Field: "company_name", Reason: "missing name"})
		}
		records = append(records, rec)
	}
	return records, issues
}

// FinancialRecords converts a source-2 table back to records, flagging
// malformed rows instead of failing.
func FinancialRecords(t *tabular.Table) ([]FinancialRecord, []RowIssue) {
	records := make([]FinancialRecord, 0, t.NumRows())
	var issues []RowIssue
	for i := range t.Rows {
		rec := FinancialRecord{
			Corporation:   t.StringAt(i, "corporation"),
			MainCustomers: t.ListAt(i, "main_customers"),
		}
		if rec.Corporation == "" {
			issues = append(issues, RowIssue{Source: "source2", Row: i, Field: "corporation", Reason: "missing name"})
		}
		revenue, err := t.FloatAt(i, "revenue")
		if err != nil {
			issues = append(issues, RowIssue{Source: "source2", Row: i, Field: "revenue", Reason: err.Error()})
		}
		profit, err := t.FloatAt(i, "profit")
		if err != nil {
			issues = append(issues, RowIssue{Source: "source2", Row: i, Field: "profit", Reason: err.Error()})
		}
		rec.Revenue = revenue
		rec.Profit = profit
		records = append(records, rec)
	}
	return records, issues
}

// UnifiedRecords converts a harmonized table back to records.
func UnifiedRecords(t *tabular.Table) ([]UnifiedRecord, error) {
	records := make([]UnifiedRecord, 0, t.NumRows())
	for i := range t.Rows {
		rec := UnifiedRecord{
			CanonicalName:     t.StringAt(i, "canonical_name"),
			Address:           t.StringAt(i, "address"),
			ActivityLocations: t.ListAt(i, "activity_locations"),
			TopSuppliers:      t.ListAt(i, "top_suppliers"),
			MainCustomers:     t.ListAt(i, "main_customers"),
		}
		if rec.CanonicalName == "" {
			return nil, fmt.Errorf("unified row %d is missing canonical_name", i)
		}
		if v, err := t.FloatAt(i, "revenue"); err == nil {
			rec.Revenue = v
			rec.HasFinancial = true
		}
		if v, err := t.FloatAt(i, "profit"); err == nil {
			rec.Profit = v
		}
		if v, err := t.FloatAt(i, "profit_margin"); err == nil {
			rec.ProfitMargin = v
		}
		records = append(records, rec)
	}
	return records, nil
}
