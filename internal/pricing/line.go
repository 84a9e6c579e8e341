package pricing

// ComputeLineTotal fills the derived fields of a line item. The discount
// applies to the item amount only; process charges are added after rounding
// and are never discounted.
func ComputeLineTotal(item LineItem) LineItem {
	var processes []ProcessCharge
	if item.Processes != nil {
		processes = make([]ProcessCharge, len(item.Processes))
	}
	var processesTotal float64
	for i, p := range item.Processes {
		p.ProcessTotal = p.UnitCost * float64(p.Quantity)
		processesTotal += p.ProcessTotal
		processes[i] = p
	}
	item.Processes = processes

	if item.Quantity <= 0 {
		item.LineNet = 0
		item.ProcessesTotal = 0
		item.LineTotal = 0
		return item
	}

	gross := item.Quantity * item.UnitRate
	discount := gross * (item.DiscountPercent / 100)
	item.LineNet = Round2(gross - discount)
	item.ProcessesTotal = processesTotal
	item.LineTotal = item.LineNet + processesTotal
	return item
}

// ComputeLines returns a copy of items with every line computed.
func ComputeLines(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = ComputeLineTotal(item)
	}
	return out
}
