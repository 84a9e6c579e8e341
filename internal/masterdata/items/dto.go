package items

// ItemInput is the create/update payload.
type ItemInput struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Name        string  `json:"name" validate:"required,max=200"`
	HSNCode     string  `json:"hsn_code" validate:"omitempty,max=16"`
	UOM         string  `json:"uom" validate:"required,max=16"`
	DefaultRate float64 `json:"default_rate" validate:"gte=0"`
	Description string  `json:"description" validate:"max=1000"`
	IsActive    *bool   `json:"is_active"`
}

func (in ItemInput) apply(item *Item) {
	item.Code = in.Code
	item.Name = in.Name
	item.HSNCode = in.HSNCode
	item.UOM = in.UOM
	item.DefaultRate = in.DefaultRate
	item.Description = in.Description
	item.IsActive = in.IsActive == nil || *in.IsActive
}
