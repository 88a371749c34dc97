package types

// Tag says which classification branch produced a DisplayState.
type Tag string

const (
	TagLevel       Tag = "level"
	TagFull        Tag = "full"
	TagMuted       Tag = "muted"
	TagUnavailable Tag = "unavailable"
)

// Severity of a DisplayState relative to the configured critical level.
type Severity string

const (
	SeverityNormal       Severity = "normal"
	SeveritySoftCritical Severity = "soft-critical"
	SeverityHardCritical Severity = "hard-critical"
)

// DisplayState is what a bar renders. Two states are equal when everything
// but the raw reading matches, so a jittery float that rounds the same
// does not cause a republish.
type DisplayState struct {
	Tag       Tag      `json:"tag"`
	Bucket    int      `json:"bucket"`
	Level     int      `json:"level"`
	Value     string   `json:"value"`
	Icon      string   `json:"icon"`
	Color     string   `json:"color"`
	Severity  Severity `json:"severity"`
	Status    Status   `json:"status"`
	Text      string   `json:"text"`
	PlainText string   `json:"plainText"`

	Reading DeviceReading `json:"reading"`
}

// Equal reports whether s and o would render identically.
func (s DisplayState) Equal(o DisplayState) bool {
	return s.Tag == o.Tag &&
		s.Bucket == o.Bucket &&
		s.Level == o.Level &&
		s.Value == o.Value &&
		s.Icon == o.Icon &&
		s.Color == o.Color &&
		s.Severity == o.Severity &&
		s.Status == o.Status &&
		s.Text == o.Text &&
		s.PlainText == o.PlainText
}

// IsZero reports whether nothing has been classified yet.
func (s DisplayState) IsZero() bool {
	return s.Tag == ""
}
