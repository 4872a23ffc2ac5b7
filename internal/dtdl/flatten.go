package dtdl

import "sort"

// Flattened is the merged view of an interface and all of its bases: one
// content list per kind, with duplicate names resolved in favor of the
// most-derived definition (spec §4.2 Get/List: "duplicates by name are
// de-duplicated; derived definitions shadow bases").
type Flattened struct {
	Properties    []Content
	Relationships []Content
	Telemetries   []Content
	Components    []Content
}

// Flatten merges iface's own contents with those of every interface in
// bases. Only one definition per name survives: iface's own wins, and
// among bases the earliest entry in the slice that declares the name wins,
// so bases is expected in nearest-ancestor-first order. bases should already be resolved
// Interface values for every DTMI in iface.Extends (transitively).
func Flatten(iface *Interface, bases []*Interface) Flattened {
	type slot struct {
		content Content
		depth   int // 0 = iface itself, >0 = distance from iface in the ancestor walk
	}
	seen := make(map[string]slot)

	record := func(c Content, depth int) {
		existing, ok := seen[c.Name]
		if !ok || depth < existing.depth {
			seen[c.Name] = slot{content: c, depth: depth}
		}
	}

	for _, c := range iface.Contents {
		record(c, 0)
	}
	for _, b := range bases {
		if b == nil {
			continue
		}
		for _, c := range b.Contents {
			record(c, 1)
		}
	}

	var out Flattened
	for _, s := range seen {
		switch s.content.Kind {
		case KindProperty:
			out.Properties = append(out.Properties, s.content)
		case KindRelationship:
			out.Relationships = append(out.Relationships, s.content)
		case KindTelemetry:
			out.Telemetries = append(out.Telemetries, s.content)
		case KindComponent:
			out.Components = append(out.Components, s.content)
		}
	}

	sortByName := func(contents []Content) {
		sort.Slice(contents, func(i, j int) bool { return contents[i].Name < contents[j].Name })
	}
	sortByName(out.Properties)
	sortByName(out.Relationships)
	sortByName(out.Telemetries)
	sortByName(out.Components)

	return out
}

// FindProperty, FindRelationship, FindComponent look up one content entry
// by name in a Flattened view.
func (f Flattened) FindProperty(name string) (Content, bool) {
	return findByName(f.Properties, name)
}

func (f Flattened) FindRelationship(name string) (Content, bool) {
	return findByName(f.Relationships, name)
}

func (f Flattened) FindComponent(name string) (Content, bool) {
	return findByName(f.Components, name)
}

func findByName(contents []Content, name string) (Content, bool) {
	for _, c := range contents {
		if c.Name == name {
			return c, true
		}
	}
	return Content{}, false
}
