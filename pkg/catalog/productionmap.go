package catalog

// ProductionMap resolves a production name to the class that supplies it.
// When more than one class under different namespaces declares the same
// production name, the class from the earliest-declared namespace wins;
// ties within a namespace are broken by the entries' sorted order, so the
// first entry Build ever records for a name stands.
type ProductionMap struct {
	producer map[string]string
}

func buildProductionMap(entries []Entry) *ProductionMap {
	pm := &ProductionMap{producer: make(map[string]string)}
	for _, e := range entries {
		for _, prod := range e.Info.Productions {
			if _, exists := pm.producer[prod]; !exists {
				pm.producer[prod] = e.Info.Meta.Name
			}
		}
	}
	return pm
}

// ProducerOf returns the class name that supplies production, and whether
// any registered class supplies it at all.
func (pm *ProductionMap) ProducerOf(production string) (string, bool) {
	cls, ok := pm.producer[production]
	return cls, ok
}
