package schema

// Materialize builds the attribute set of a new record from input and the schema.
//
// Each declared field takes the input value when the name is present in input, else its
// resolved default, else stays unset. Composite fields recurse into their properties. Input
// keys that are not declared are dropped, at every level.
func Materialize(s Schema, input map[string]any) map[string]any {
	out := make(map[string]any, len(s))
	for name, field := range s {
		value, present := input[name]
		if v, ok := materializeField(field, value, present); ok {
			out[name] = v
		}
	}
	return out
}

// Project keeps only the declared keys of attrs, recursing into composites. Unlike
// Materialize it does not apply defaults.
func Project(s Schema, attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for name, value := range attrs {
		field, ok := s[name]
		if !ok {
			continue
		}
		if nested, isMap := value.(map[string]any); isMap && field.IsComposite() {
			out[name] = Project(field.Properties, nested)
			continue
		}
		out[name] = value
	}
	return out
}

func materializeField(field *Field, value any, present bool) (any, bool) {
	if field == nil {
		if present {
			return value, true
		}
		return nil, false
	}

	if field.IsComposite() {
		nested, isMap := value.(map[string]any)
		switch {
		case present && isMap:
			return Materialize(field.Properties, nested), true
		case present:
			// a non-map value for a composite is kept for the validator to reject
			return value, true
		}
		if field.Default != nil {
			return field.Default.Resolve(), true
		}
		defaults := Materialize(field.Properties, nil)
		if len(defaults) == 0 {
			return nil, false
		}
		return defaults, true
	}

	if present {
		return value, true
	}
	if field.Default != nil {
		return field.Default.Resolve(), true
	}
	return nil, false
}
