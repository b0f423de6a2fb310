package domain

// Prize is one prize category inside a campaign. Remaining starts equal
// to Quantity and only ever decreases, one unit per award, never below
// zero.
type Prize struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
}

// Award consumes one unit of inventory. It reports false when the prize
// is exhausted, leaving Remaining untouched.
func (p *Prize) Award() bool {
	if p.Remaining <= 0 {
		return false
	}
	p.Remaining--
	return true
}
