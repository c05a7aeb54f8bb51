package model

type BillingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	ZipCode    string `json:"zip_code"`
	Country    string `json:"country"`
	Newsletter bool   `json:"newsletter"`
	ShipToSame bool   `json:"shipToSame"`
}

// MissingFields returns the json names of required fields that are empty.
func (a BillingAddress) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"zip_code", a.ZipCode},
		{"country", a.Country},
	}
	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type Country struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}
