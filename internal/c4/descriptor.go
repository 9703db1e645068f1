package c4

import "fmt"

// BaseType is the C4 concept an element stands for.
type BaseType string

const (
	BaseSystem    BaseType = "system"
	BasePerson    BaseType = "person"
	BaseContainer BaseType = "container"
	BaseComponent BaseType = "component"
	BaseClass     BaseType = "class"
	BaseInterface BaseType = "interface"
	BaseNote      BaseType = "note"
)

// Variant refines how a base type is drawn.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantExternal Variant = "external"
	VariantDB       Variant = "db"
	VariantQueue    Variant = "queue"
	VariantBoundary Variant = "boundary"
)

// BoundaryType picks the boundary macro. Empty means a generic Boundary.
type BoundaryType string

const (
	BoundarySystem    BoundaryType = "system"
	BoundaryContainer BoundaryType = "container"
)

// InterfaceType tags elements of Interface diagrams.
type InterfaceType string

const (
	IfaceInterface InterfaceType = "interface"
	IfaceType      InterfaceType = "type"
	IfaceEnum      InterfaceType = "enum"
)

var (
	validBaseTypes = map[BaseType]bool{
		BaseSystem: true, BasePerson: true, BaseContainer: true, BaseComponent: true,
		BaseClass: true, BaseInterface: true, BaseNote: true,
	}
	validVariants = map[Variant]bool{
		VariantStandard: true, VariantExternal: true, VariantDB: true,
		VariantQueue: true, VariantBoundary: true,
	}
	validBoundaryTypes = map[BoundaryType]bool{
		BoundarySystem: true, BoundaryContainer: true,
	}
	validInterfaceTypes = map[InterfaceType]bool{
		IfaceInterface: true, IfaceType: true, IfaceEnum: true,
	}
)

// Role is the closed set of rendering roles a descriptor can resolve to.
type Role int

const (
	RoleStandard Role = iota
	RoleBoundary
	RoleInterfaceTyped
)

func (r Role) String() string {
	switch r {
	case RoleBoundary:
		return "boundary"
	case RoleInterfaceTyped:
		return "interface-typed"
	default:
		return "standard"
	}
}

// Descriptor is the tuple of type fields that decides which macro draws
// an element.
type Descriptor struct {
	BaseType      BaseType      `json:"baseType"`
	Variant       Variant       `json:"variant"`
	BoundaryType  BoundaryType  `json:"boundaryType,omitempty"`
	InterfaceType InterfaceType `json:"interfaceType,omitempty"`
	// External marks a db or queue that lives outside the system.
	External bool `json:"external,omitempty"`
}

// Normalized fills the default variant.
func (d Descriptor) Normalized() Descriptor {
	if d.Variant == "" {
		d.Variant = VariantStandard
	}
	return d
}

// Role classifies the descriptor. Boundary wins over interface typing.
func (d Descriptor) Role() Role {
	switch {
	case d.Variant == VariantBoundary:
		return RoleBoundary
	case d.InterfaceType != "":
		return RoleInterfaceTyped
	default:
		return RoleStandard
	}
}

// IsExternal reports whether the element lives outside the modelled system.
func (d Descriptor) IsExternal() bool {
	return d.Variant == VariantExternal || d.External
}

// Validate rejects combinations the generator cannot draw for the given
// diagram type.
func (d Descriptor) Validate(dt DiagramType) error {
	d = d.Normalized()

	if !validBaseTypes[d.BaseType] {
		return Invalid("base_type", fmt.Sprintf(
			"invalid base type %q: must be one of: system, person, container, component, class, interface, note", d.BaseType))
	}
	if !validVariants[d.Variant] {
		return Invalid("variant", fmt.Sprintf(
			"invalid variant %q: must be one of: standard, external, db, queue, boundary", d.Variant))
	}

	if d.BoundaryType != "" {
		if d.Variant != VariantBoundary {
			return Invalid("boundary_type", "only allowed when variant is boundary")
		}
		if !validBoundaryTypes[d.BoundaryType] {
			return Invalid("boundary_type", fmt.Sprintf(
				"invalid boundary type %q: must be one of: system, container", d.BoundaryType))
		}
	}

	if d.InterfaceType != "" {
		if dt != DiagramInterface {
			return Invalid("interface_type", fmt.Sprintf(
				"only allowed on interface diagrams, not %s", dt))
		}
		if !validInterfaceTypes[d.InterfaceType] {
			return Invalid("interface_type", fmt.Sprintf(
				"invalid interface type %q: must be one of: interface, type, enum", d.InterfaceType))
		}
		if d.Variant == VariantBoundary {
			return Invalid("interface_type", "cannot be combined with a boundary")
		}
	}

	if d.External && d.Variant != VariantDB && d.Variant != VariantQueue {
		return Invalid("external", "only combines with the db or queue variant; use variant external otherwise")
	}

	return nil
}

// RequiresTechnology reports whether the base type needs a technology.
func (d Descriptor) RequiresTechnology() bool {
	return d.Variant != VariantBoundary &&
		(d.BaseType == BaseContainer || d.BaseType == BaseComponent)
}
