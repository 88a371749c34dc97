package powerinfo

// Supply is one entry of the power_supply class.
type Supply struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Scope  string `json:"scope,omitempty"`
	Status string `json:"status,omitempty"`
	// Capacity is -1 when the supply does not report one.
	Capacity int    `json:"capacity"`
	Online   *bool  `json:"online,omitempty"`
	Model    string `json:"model,omitempty"`
	Path     string `json:"path"`
}

// Battery is a battery as seen by the platform battery library.
// Units:
// - Current, Full, Design: mWh
// - ChargeRate: mW
// - Voltage: Volts
type Battery struct {
	Index      int     `json:"index"`
	State      string  `json:"state"`
	Current    float64 `json:"current"`
	Full       float64 `json:"full"`
	Design     float64 `json:"design"`
	ChargeRate float64 `json:"chargeRate"`
	Voltage    float64 `json:"voltage"`
}

// Health is the full capacity as a percentage of the design capacity.
func (b Battery) Health() float64 {
	if b.Design <= 0 {
		return 0
	}
	return b.Full / b.Design * 100
}

// Percent is the charge level, 0-100.
func (b Battery) Percent() float64 {
	if b.Full <= 0 {
		return 0
	}
	p := b.Current / b.Full * 100
	if p > 100 {
		return 100
	}
	return p
}
