package vectorstore

// a single metadata equality test
type Condition struct {
	Field string
	Value string
}

// a disjunction of metadata equality conditions; the zero value matches everything
type Filter struct {
	Any []Condition
}

// matches documents whose metadata field equals value
func Eq(field, value string) Filter {
	return Filter{Any: []Condition{{Field: field, Value: value}}}
}

// matches documents that satisfy any of the given filters
func Or(filters ...Filter) Filter {
	var out Filter

	for _, f := range filters {
		out.Any = append(out.Any, f.Any...)
	}

	return out
}

func (f Filter) IsEmpty() bool {
	return len(f.Any) == 0
}

func (f Filter) Matches(metadata map[string]string) bool {
	if f.IsEmpty() {
		return true
	}

	for _, c := range f.Any {
		if v, ok := metadata[c.Field]; ok && v == c.Value {
			return true
		}
	}

	return false
}
