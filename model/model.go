package model

type Form struct {
	ID          int        `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Country     string     `json:"country"`
	QueryText   string     `json:"queryText"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID      string   `json:"id"`
	FormID  int      `json:"formId,omitempty"`
	Title   string   `json:"title"`
	Type    string   `json:"type,omitempty"`
	Country string   `json:"country,omitempty"`
	Options []Option `json:"options"`
}

type OptionKind string

const (
	KindText        OptionKind = "text"
	KindDate        OptionKind = "date"
	KindDropdown    OptionKind = "dropdown"
	KindMultiselect OptionKind = "multiselect"
)

// Selectable reports whether the option carries a list of choices
// the user picks from, as opposed to free input.
func (k OptionKind) Selectable() bool {
	return k == KindDropdown || k == KindMultiselect
}

type SourceMode string

const (
	SourceFixedValues SourceMode = "fixedValues"
	SourceSQLTemplate SourceMode = "sqlTemplate"
)

// Choice is one selectable value of a dropdown/multiselect option.
type Choice struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Option struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	ParamName  string     `json:"paramName"`
	Kind       OptionKind `json:"kind"`
	SourceMode SourceMode `json:"sourceMode"`
	RawValue   string     `json:"rawValue"`
	Choices    []Choice   `json:"resolvedChoices"`
	// Selected holds the user's current value: a string for
	// text/date/dropdown, a list of strings for multiselect.
	Selected any `json:"selected,omitempty"`
}

// SelectedValues normalizes Selected to a flat string list.
// Empty and non-string values are dropped.
func (o Option) SelectedValues() []string {
	switch v := o.Selected.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				values = append(values, s)
			}
		}
		return values
	}
	return nil
}
