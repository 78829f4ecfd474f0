package queue

// Cloner is implemented by pushed values that hold references of their own
// and know how to copy themselves.
type Cloner interface {
	CloneValue() any
}

// Clone returns a deep copy of v for the shapes pushed onto queues: maps
// keyed by string, slices of any, and Cloner values. Other values are
// returned as they are, so they must be immutable or copied by value.
func Clone(v any) any {
	switch v := v.(type) {
	case Cloner:
		return v.CloneValue()
	case map[string]any:
		if v == nil {
			return v
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Clone(val)
		}
		return out
	case []any:
		return CloneSlice(v)
	default:
		return v
	}
}

// CloneSlice deep-copies each element of s with Clone.
func CloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, val := range s {
		out[i] = Clone(val)
	}
	return out
}
