package dtdl

// References returns every DTMI this interface points at: its direct
// `extends` parents, component schema targets, and relationship targets.
// internal/catalog uses this to compute the resolution closure for a
// batch create (spec §4.2 step 1-2).
func References(iface *Interface) (extends, componentSchemas, relationshipTargets []DTMI) {
	extends = append(extends, iface.Extends...)
	walkContents(iface.Contents, func(c Content) {
		switch c.Kind {
		case KindComponent:
			if c.ComponentSchema != "" {
				componentSchemas = append(componentSchemas, c.ComponentSchema)
			}
		case KindRelationship:
			if c.Target != "" {
				relationshipTargets = append(relationshipTargets, c.Target)
			}
		}
	})
	return extends, componentSchemas, relationshipTargets
}

func walkContents(contents []Content, fn func(Content)) {
	for _, c := range contents {
		fn(c)
		if c.Kind == KindRelationship && len(c.RelProperties) > 0 {
			walkContents(c.RelProperties, fn)
		}
	}
}

// PropertyNames, RelationshipNames, ComponentNames, TelemetryNames return
// the content names of each kind declared directly on iface (not
// including anything from bases — see Flatten for that).
func PropertyNames(iface *Interface) []string     { return namesOfKind(iface, KindProperty) }
func RelationshipNames(iface *Interface) []string { return namesOfKind(iface, KindRelationship) }
func ComponentNames(iface *Interface) []string    { return namesOfKind(iface, KindComponent) }
func TelemetryNames(iface *Interface) []string    { return namesOfKind(iface, KindTelemetry) }

func namesOfKind(iface *Interface, kind ContentKind) []string {
	var out []string
	for _, c := range iface.Contents {
		if c.Kind == kind {
			out = append(out, c.Name)
		}
	}
	return out
}
