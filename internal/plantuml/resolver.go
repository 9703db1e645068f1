package plantuml

import (
	"strings"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

// baseMacros maps base types to macro stems. C4-PlantUML has no class or
// interface shape, so code-level elements are drawn as components.
var baseMacros = map[c4.BaseType]string{
	c4.BaseSystem:    "System",
	c4.BasePerson:    "Person",
	c4.BaseContainer: "Container",
	c4.BaseComponent: "Component",
	c4.BaseClass:     "Component",
	c4.BaseInterface: "Component",
}

// ResolveMacro maps a descriptor to the C4-PlantUML macro that draws it.
// Notes have no macro and return "".
func ResolveMacro(d c4.Descriptor) string {
	d = d.Normalized()

	switch d.Role() {
	case c4.RoleBoundary:
		switch d.BoundaryType {
		case c4.BoundarySystem:
			return "System_Boundary"
		case c4.BoundaryContainer:
			return "Container_Boundary"
		default:
			return "Boundary"
		}
	case c4.RoleInterfaceTyped:
		return "Component"
	}

	stem, ok := baseMacros[d.BaseType]
	if !ok {
		return ""
	}
	switch d.Variant {
	case c4.VariantDB:
		stem += "Db"
	case c4.VariantQueue:
		stem += "Queue"
	}
	if d.IsExternal() {
		stem += "_Ext"
	}
	return stem
}

// takesTechnology reports whether the macro signature has a technology
// slot between label and description.
func takesTechnology(macro string) bool {
	if strings.HasSuffix(macro, "_Boundary") {
		return false
	}
	return strings.HasPrefix(macro, "Container") || strings.HasPrefix(macro, "Component")
}
