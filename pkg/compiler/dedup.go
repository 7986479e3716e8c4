package compiler

// classKey identifies an instancing equivalence class. The material component
// is empty in selective mode, where geometry alone decides interchangeability
// and per-member materials are emitted as overrides.
type classKey struct {
	geometry string
	material string
}

// instanceClass groups mesh nodes that may share one emitted definition.
// The representative is the first-encountered member in traversal order; it
// provides the geometry/material wiring for the shared definition while all
// members, the representative included, become lightweight references.
type instanceClass struct {
	key     classKey
	rep     *treeNode
	members []*treeNode

	// name is assigned by the emitter when the shared definition is written.
	name string
}

// dedupe partitions the walk's mesh candidates into equivalence classes and
// returns the classes with two or more members, in order of first encounter.
// Each member of a returned class has its class pointer set so the emitter
// replaces it with a reference. Classes of size one are not instanced and
// their nodes stay untouched. With instancing disabled the result is nil and
// every mesh is emitted inline.
func dedupe(meshes []*treeNode, mode InstancingMode) []*instanceClass {
	if mode == InstancingNone {
		return nil
	}

	classes := make(map[classKey]*instanceClass)
	var order []*instanceClass
	for _, m := range meshes {
		if m.src.Skinned() {
			// Skinned meshes carry per-instance skeleton state and cannot
			// share a merged definition.
			continue
		}
		key := classKey{geometry: m.src.Geometry}
		if mode == InstancingAll {
			key.material = m.src.Material
		}
		c, ok := classes[key]
		if !ok {
			c = &instanceClass{key: key, rep: m}
			classes[key] = c
			order = append(order, c)
		}
		c.members = append(c.members, m)
	}

	var active []*instanceClass
	for _, c := range order {
		if len(c.members) < 2 {
			continue
		}
		for _, m := range c.members {
			m.class = c
		}
		active = append(active, c)
	}
	return active
}
