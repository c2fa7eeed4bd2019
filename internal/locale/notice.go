package locale

// Notice is a localized message shown instead of a result, such as an access denial.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Colour      string `json:"colour,omitempty"`
	Footer      string `json:"footer,omitempty"`
}

// NotStaff builds the notice shown when a requester may not view a transcript.
func (c *Catalog) NotStaff(locale, colour, footer string) *Notice {
	return &Notice{
		Title:       c.T(locale, KeyNotStaffTitle),
		Description: c.T(locale, KeyNotStaffDescription),
		Colour:      colour,
		Footer:      footer,
	}
}
