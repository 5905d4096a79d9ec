package metrics

// normalizeLabel keeps label cardinality sane when a caller passes an empty
// value; Prometheus treats "" as a distinct series.
func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
