// Package shared holds the line and totals model common to quotations and
// sales orders.
package shared

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/wms/internal/platform/db"
	"github.com/odyssey-erp/wms/internal/pricing"
)

// Line is a persisted document line with its computed amounts.
type Line struct {
	ID              int64         `json:"id"`
	ItemID          *int64        `json:"item_id,omitempty"`
	Name            string        `json:"name"`
	Quantity        float64       `json:"quantity"`
	UnitRate        float64       `json:"unit_rate"`
	DiscountPercent float64       `json:"discount_percent"`
	LineNet         float64       `json:"line_net"`
	ProcessesTotal  float64       `json:"processes_total"`
	LineTotal       float64       `json:"line_total"`
	LineOrder       int           `json:"line_order"`
	Processes       []LineProcess `json:"processes"`
}

// LineProcess is a process charge billed on a line.
type LineProcess struct {
	ID           int64   `json:"id"`
	ProcessID    *int64  `json:"process_id,omitempty"`
	Name         string  `json:"name"`
	UnitCost     float64 `json:"unit_cost"`
	Quantity     int     `json:"quantity"`
	ProcessTotal float64 `json:"process_total"`
	Sequence     int     `json:"sequence"`
}

// PricingItem converts the line back into engine input. Computed amounts are
// left out so the engine recomputes them.
func (l Line) PricingItem() pricing.LineItem {
	item := pricing.LineItem{
		ItemID:          l.ItemID,
		Name:            l.Name,
		Quantity:        l.Quantity,
		UnitRate:        l.UnitRate,
		DiscountPercent: l.DiscountPercent,
	}
	for _, p := range l.Processes {
		item.Processes = append(item.Processes, pricing.ProcessCharge{
			ProcessID: p.ProcessID,
			Name:      p.Name,
			UnitCost:  p.UnitCost,
			Quantity:  p.Quantity,
		})
	}
	return item
}

// PricingItems converts persisted lines into engine input.
func PricingItems(lines []Line) []pricing.LineItem {
	items := make([]pricing.LineItem, len(lines))
	for i, l := range lines {
		items[i] = l.PricingItem()
	}
	return items
}

// LinesFromPricing maps computed engine lines to persistable lines, numbering
// them in input order.
func LinesFromPricing(items []pricing.LineItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		line := Line{
			ItemID:          it.ItemID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			UnitRate:        it.UnitRate,
			DiscountPercent: it.DiscountPercent,
			LineNet:         it.LineNet,
			ProcessesTotal:  it.ProcessesTotal,
			LineTotal:       it.LineTotal,
			LineOrder:       i + 1,
			Processes:       make([]LineProcess, len(it.Processes)),
		}
		for j, p := range it.Processes {
			line.Processes[j] = LineProcess{
				ProcessID:    p.ProcessID,
				Name:         p.Name,
				UnitCost:     p.UnitCost,
				Quantity:     p.Quantity,
				ProcessTotal: p.ProcessTotal,
				Sequence:     j + 1,
			}
		}
		lines[i] = line
	}
	return lines
}

// LineStore persists lines of one document type. Table names are fixed at
// construction and never come from user input.
type LineStore struct {
	LineTable    string
	ProcessTable string
	ParentColumn string
}

var (
	QuotationLines  = LineStore{LineTable: "quotation_lines", ProcessTable: "quotation_line_processes", ParentColumn: "quotation_id"}
	SalesOrderLines = LineStore{LineTable: "sales_order_lines", ProcessTable: "sales_order_line_processes", ParentColumn: "sales_order_id"}
)

// Insert writes lines and their processes for a document.
func (s LineStore) Insert(ctx context.Context, q db.DBTX, documentID int64, lines []Line) error {
	lineSQL := fmt.Sprintf(`INSERT INTO %s (%s, item_id, name, quantity, unit_rate, discount_percent,
			line_net, processes_total, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`, s.LineTable, s.ParentColumn)
	procSQL := fmt.Sprintf(`INSERT INTO %s (line_id, process_id, name, unit_cost, quantity, process_total, sequence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.ProcessTable)

	for _, l := range lines {
		var lineID int64
		err := q.QueryRow(ctx, lineSQL,
			documentID, l.ItemID, l.Name, db.Decimal(l.Quantity), db.Decimal(l.UnitRate),
			db.Decimal(l.DiscountPercent), db.Decimal(l.LineNet), db.Decimal(l.ProcessesTotal),
			db.Decimal(l.LineTotal), l.LineOrder,
		).Scan(&lineID)
		if err != nil {
			return fmt.Errorf("insert %s: %w", s.LineTable, err)
		}
		for _, p := range l.Processes {
			_, err := q.Exec(ctx, procSQL, lineID, p.ProcessID, p.Name, db.Decimal(p.UnitCost),
				p.Quantity, db.Decimal(p.ProcessTotal), p.Sequence)
			if err != nil {
				return fmt.Errorf("insert %s: %w", s.ProcessTable, err)
			}
		}
	}
	return nil
}

// Load reads the lines of a document ordered by line_order, processes by sequence.
func (s LineStore) Load(ctx context.Context, q db.DBTX, documentID int64) ([]Line, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT id, item_id, name, quantity, unit_rate, discount_percent,
			line_net, processes_total, line_total, line_order
		FROM %s WHERE %s = $1 ORDER BY line_order, id`, s.LineTable, s.ParentColumn), documentID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.LineTable, err)
	}
	var lines []Line
	index := map[int64]int{}
	for rows.Next() {
		var l Line
		var qty, rate, disc, net, procs, total decimal.Decimal
		if err := rows.Scan(&l.ID, &l.ItemID, &l.Name, &qty, &rate, &disc, &net, &procs, &total, &l.LineOrder); err != nil {
			rows.Close()
			return nil, err
		}
		l.Quantity, l.UnitRate, l.DiscountPercent = db.Float(qty), db.Float(rate), db.Float(disc)
		l.LineNet, l.ProcessesTotal, l.LineTotal = db.Float(net), db.Float(procs), db.Float(total)
		l.Processes = []LineProcess{}
		index[l.ID] = len(lines)
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []Line{}, nil
	}

	prows, err := q.Query(ctx, fmt.Sprintf(`SELECT p.id, p.line_id, p.process_id, p.name, p.unit_cost, p.quantity,
			p.process_total, p.sequence
		FROM %s p JOIN %s l ON l.id = p.line_id
		WHERE l.%s = $1 ORDER BY p.line_id, p.sequence`, s.ProcessTable, s.LineTable, s.ParentColumn), documentID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.ProcessTable, err)
	}
	defer prows.Close()
	for prows.Next() {
		var p LineProcess
		var lineID int64
		var cost, total decimal.Decimal
		if err := prows.Scan(&p.ID, &lineID, &p.ProcessID, &p.Name, &cost, &p.Quantity, &total, &p.Sequence); err != nil {
			return nil, err
		}
		p.UnitCost, p.ProcessTotal = db.Float(cost), db.Float(total)
		if i, ok := index[lineID]; ok {
			lines[i].Processes = append(lines[i].Processes, p)
		}
	}
	return lines, prows.Err()
}

// Delete removes every line of a document; processes cascade.
func (s LineStore) Delete(ctx context.Context, q db.DBTX, documentID int64) error {
	_, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.LineTable, s.ParentColumn), documentID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.LineTable, err)
	}
	return nil
}
