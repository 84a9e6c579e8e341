package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/export"
)

// Exit codes returned by PriceCommand.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitInvalid = 2
)

// QuoteFile is the document read by `wms price`. JSON and YAML share the
// same field names.
type QuoteFile struct {
	Customer *pricing.CustomerTaxProfile `json:"customer,omitempty"`
	Tax      pricing.TaxParameters       `json:"tax"`
	Lines    []pricing.LineItem          `json:"lines"`
}

// PriceOptions defines available flags for the price command.
type PriceOptions struct {
	Path        string
	JSONOutput  bool
	SellerState string
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
}

// PriceSummary is the JSON output of the price command.
type PriceSummary struct {
	pricing.Result
	GSTLabel string `json:"gst_label"`
}

// PriceCommand reads a quote file, prices it and prints the breakdown.
func PriceCommand(opts PriceOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.Path) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "price: -f is required (use - for stdin)")
		return ExitFailure
	}
	quote, err := readQuote(opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "price: %v\n", err)
		return ExitFailure
	}
	params := quote.Tax.WithDefaults()
	if err := pricing.Validate(quote.Lines, params); err != nil {
		printValidation(opts.Stderr, err)
		return ExitInvalid
	}

	result := pricing.Compute(quote.Lines, quote.Customer, params)
	summary := PriceSummary{
		Result:   result,
		GSTLabel: export.GSTLabel(quote.Customer, params.GSTPercent, opts.SellerState),
	}
	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "price: encode json: %v\n", err)
			return ExitFailure
		}
		return ExitOK
	}
	renderPriceHuman(opts.Stdout, summary)
	return ExitOK
}

func readQuote(opts PriceOptions) (QuoteFile, error) {
	var (
		raw []byte
		err error
	)
	if opts.Path == "-" {
		if opts.Stdin == nil {
			opts.Stdin = os.Stdin
		}
		raw, err = io.ReadAll(opts.Stdin)
	} else {
		raw, err = os.ReadFile(opts.Path)
	}
	if err != nil {
		return QuoteFile{}, err
	}

	switch strings.ToLower(filepath.Ext(opts.Path)) {
	case ".yaml", ".yml":
		// Route YAML through JSON so both formats honour the json tags.
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return QuoteFile{}, fmt.Errorf("parse yaml: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return QuoteFile{}, fmt.Errorf("convert yaml: %w", err)
		}
	}

	var quote QuoteFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&quote); err != nil {
		return QuoteFile{}, fmt.Errorf("parse quote: %w", err)
	}
	return quote, nil
}

func printValidation(w io.Writer, err error) {
	var verr *pricing.ValidationError
	if !errors.As(err, &verr) {
		_, _ = fmt.Fprintf(w, "price: %v\n", err)
		return
	}
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	_, _ = fmt.Fprintln(w, "price: invalid quote")
	for _, field := range fields {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", field, verr.Fields[field])
	}
}

var printer = message.NewPrinter(language.English)

func renderPriceHuman(w io.Writer, s PriceSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "#\tItem\tQty\tRate\tDisc%\tNet\tProcesses\tLine total\t")
	for i, line := range s.Lines {
		_, _ = printer.Fprintf(tw, "%d\t%s\t%g\t%.2f\t%g\t%.2f\t%.2f\t%.2f\t\n",
			i+1, line.Name, line.Quantity, line.UnitRate, line.DiscountPercent,
			line.LineNet, line.ProcessesTotal, line.LineTotal)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	row := func(label string, amount float64) {
		_, _ = printer.Fprintf(tw, "%s\tINR %.2f\t\n", label, amount)
	}
	row("Base amount", s.BaseAmount)
	row(s.GSTLabel, s.GSTAmount)
	if s.TDSAmount != 0 {
		row("TDS (deducted)", -s.TDSAmount)
	}
	if s.TCSAmount != 0 {
		row("TCS", s.TCSAmount)
	}
	if s.RemittanceCharges != 0 {
		row("Remittance charges", s.RemittanceCharges)
	}
	row("Quotation total", s.QuotationTotal)
	if s.Currency != pricing.CurrencyINR {
		_, _ = printer.Fprintf(tw, "Receivable @ %g\t%s %.2f\t\n", s.ExchangeRate, s.Currency, s.ReceivableAmount)
	} else {
		row("Receivable", s.ReceivableAmount)
	}
	_ = tw.Flush()
}
