package export

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
	"github.com/odyssey-erp/wms/internal/sales/shared"
)

var (
	colorPrimary = &props.Color{Red: 31, Green: 58, Blue: 96}
	colorGray    = &props.Color{Red: 110, Green: 110, Blue: 110}
)

// Seller identifies the issuing company on printed documents.
type Seller struct {
	Name  string
	State string
}

// RenderQuotation lays out a quotation on A4 and returns the PDF bytes.
func RenderQuotation(q *quotations.Quotation, customer *customers.Customer, seller Seller) ([]byte, error) {
	if q == nil || customer == nil {
		return nil, fmt.Errorf("render quotation: quotation and customer required")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Quotation "+q.DocNumber, true).
		WithAuthor(seller.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(q, seller))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(q.Lines, string(pricing.CurrencyINR))...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(q, customer.TaxProfile(), seller)...)
	if q.Notes != nil && *q.Notes != "" {
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New("Notes: "+*q.Notes, props.Text{Size: 8, Top: 3, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render quotation %s: %w", q.DocNumber, err)
	}
	return doc.GetBytes(), nil
}

func headerRow(q *quotations.Quotation, seller Seller) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(seller.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(seller.State, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("QUOTATION", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(q.DocNumber, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Date: "+q.QuoteDate.Format("02 Jan 2006"), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
			text.New("Valid until: "+q.ValidUntil.Format("02 Jan 2006"), props.Text{Size: 8, Align: align.Right, Top: 17, Color: colorGray}),
		),
	)
}

func customerRow(c *customers.Customer) core.Row {
	location := c.Country
	if c.State != nil && *c.State != "" {
		location = *c.State + ", " + c.Country
	}
	gstin := "-"
	if c.GSTIN != nil && *c.GSTIN != "" {
		gstin = *c.GSTIN
	}
	return row.New(16).Add(col.New(12).Add(
		text.New("BILL TO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		text.New(fmt.Sprintf("%s   |   GSTIN: %s", location, gstin), props.Text{Size: 8, Top: 12, Color: colorGray}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Description", 4, align.Left),
		h("Qty", 1, align.Right),
		h("Rate", 2, align.Right),
		h("Disc.", 1, align.Right),
		h("Amount", 3, align.Right),
	)
}

func lineRows(lines []shared.Line, code string) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	rows := make([]core.Row, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, row.New(6).Add(
			cell(fmt.Sprint(i+1), 1, align.Center),
			cell(l.Name, 4, align.Left),
			cell(formatNumber(l.Quantity), 1, align.Right),
			cell(formatAmount(code, l.UnitRate), 2, align.Right),
			cell(formatPercent(l.DiscountPercent), 1, align.Right),
			cell(formatAmount(code, l.LineNet), 3, align.Right),
		))
		for _, p := range l.Processes {
			rows = append(rows, row.New(5).Add(
				col.New(1),
				col.New(4).Add(text.New("+ "+p.Name, props.Text{Size: 7, Left: 3, Color: colorGray})),
				col.New(1).Add(text.New(fmt.Sprint(p.Quantity), props.Text{Size: 7, Align: align.Right, Right: 1, Color: colorGray})),
				col.New(2).Add(text.New(formatAmount(code, p.UnitCost), props.Text{Size: 7, Align: align.Right, Right: 1, Color: colorGray})),
				col.New(1),
				col.New(3).Add(text.New(formatAmount(code, p.ProcessTotal), props.Text{Size: 7, Align: align.Right, Right: 1, Color: colorGray})),
			))
		}
	}
	return rows
}

// GSTLabel names the GST line. The amount is always one combined figure;
// the label only says how it splits for the customer's jurisdiction.
func GSTLabel(customer *pricing.CustomerTaxProfile, gstPercent float64, sellerState string) string {
	switch {
	case !customer.Domestic():
		return "GST (not applicable)"
	case customer.IntraState(sellerState):
		half := formatPercent(gstPercent / 2)
		return fmt.Sprintf("GST %s (CGST %s + SGST %s)", formatPercent(gstPercent), half, half)
	default:
		return fmt.Sprintf("GST %s (IGST)", formatPercent(gstPercent))
	}
}

func totalsRows(q *quotations.Quotation, customer *pricing.CustomerTaxProfile, seller Seller) []core.Row {
	base := string(pricing.CurrencyINR)
	entry := func(label, value string, bold bool) core.Row {
		style := fontstyle.Normal
		color := &props.Color{}
		if bold {
			style = fontstyle.Bold
			color = colorPrimary
		}
		return row.New(5).Add(
			col.New(6),
			col.New(3).Add(text.New(label, props.Text{Style: style, Size: 9, Align: align.Right, Right: 2, Color: color})),
			col.New(3).Add(text.New(value, props.Text{Style: style, Size: 9, Align: align.Right, Right: 1, Color: color})),
		)
	}

	rows := []core.Row{
		entry("Base amount", formatAmount(base, q.Totals.BaseAmount), false),
		entry(GSTLabel(customer, q.Tax.GSTPercent, seller.State), formatAmount(base, q.Totals.GSTAmount), false),
	}
	switch q.Tax.TaxMode {
	case pricing.TaxModeTCS:
		rows = append(rows, entry("TCS "+formatPercent(q.Tax.TCSPercent), formatAmount(base, q.Totals.TCSAmount), false))
	default:
		rows = append(rows, entry("TDS "+formatPercent(q.Tax.TDSPercent), "- "+formatAmount(base, q.Totals.TDSAmount), false))
	}
	if q.Totals.RemittanceCharges != 0 {
		rows = append(rows, entry("Remittance charges", formatAmount(base, q.Totals.RemittanceCharges), false))
	}
	rows = append(rows, entry("Quotation total", formatAmount(base, q.Totals.TotalAmount), true))
	if q.Tax.Currency != pricing.CurrencyINR {
		rows = append(rows, entry(fmt.Sprintf("Receivable @ %s", formatNumber(q.Tax.ExchangeRate)), formatAmount(string(q.Tax.Currency), q.Totals.ReceivableAmount), true))
	}
	return rows
}
