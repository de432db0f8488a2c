package portfolio

// Align reindexes values against the canonical asset ordering. Assets missing
// from values take fill. The result has exactly len(assets) entries.
func Align(values map[string]float64, assets []string, fill float64) []float64 {
	out := make([]float64, len(assets))
	for i, asset := range assets {
		v, ok := values[asset]
		if !ok {
			v = fill
		}
		out[i] = v
	}
	return out
}
