package domain

// Language is a supported interface language.
type Language struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Visible bool   `json:"visible"`
}

// TimeZone describes a selectable UTC offset.
type TimeZone struct {
	OffsetCode    int      `json:"offset_code"`
	Visible       bool     `json:"visible"`
	LanguageCodes []string `json:"language_codes"`
	Description   string   `json:"description"`
}

// Currency is a supported fiat conversion currency.
type Currency struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Visible bool   `json:"visible"`
}
