package vendors

import "strings"

func normalize(in VendorInput) VendorInput {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.GSTIN = strings.ToUpper(strings.TrimSpace(in.GSTIN))
	in.State = strings.TrimSpace(in.State)
	in.Country = strings.TrimSpace(in.Country)
	if in.Country == "" {
		in.Country = "India"
	}
	return in
}

func apply(v *Vendor, in VendorInput) {
	v.Code = in.Code
	v.Name = in.Name
	v.ContactPerson = in.ContactPerson
	v.Email = in.Email
	v.Phone = in.Phone
	v.GSTIN = in.GSTIN
	v.Address = in.Address
	v.State = in.State
	v.Country = in.Country
	v.IsActive = in.IsActive == nil || *in.IsActive
}
