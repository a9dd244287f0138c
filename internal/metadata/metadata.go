// Package metadata holds the decoded, per-target form of compiled library
// metadata: module descriptors, package fragments and the declarations they
// contain. Values are produced by a target source and consumed once by the
// merger; nothing here knows about other targets.
package metadata

// ClassKind distinguishes the flavours of classifier declarations.
type ClassKind string

const (
	ClassKindClass           ClassKind = "class"
	ClassKindInterface       ClassKind = "interface"
	ClassKindEnumClass       ClassKind = "enum_class"
	ClassKindEnumEntry       ClassKind = "enum_entry"
	ClassKindObject          ClassKind = "object"
	ClassKindCompanionObject ClassKind = "companion_object"
	ClassKindAnnotationClass ClassKind = "annotation_class"
)

// MemberKind records how a callable member came to exist.
type MemberKind string

const (
	MemberDeclaration  MemberKind = "declaration"
	MemberFakeOverride MemberKind = "fake_override"
	MemberDelegation   MemberKind = "delegation"
	MemberSynthesized  MemberKind = "synthesized"
)

// Well-known annotation class names.
const (
	DeprecatedAnnotation      = "kotlin/Deprecated"
	ObjCMethodAnnotation      = "kotlinx/cinterop/ObjCMethod"
	ObjCConstructorAnnotation = "kotlinx/cinterop/ObjCConstructor"
	ObjCFactoryAnnotation     = "kotlinx/cinterop/ObjCFactory"
	ObjCSelectorArgument      = "selector"
	ObjCInitSelectorArgument  = "initSelector"
	DeprecationLevelArgument  = "level"
)

// ModuleDescriptor is the cheap, listing-level view of a module: enough to
// decide whether it takes part in the merge and to collect its interop
// exports without decoding its declarations.
type ModuleDescriptor struct {
	Name    string             `yaml:"name"`
	Interop *InteropAttributes `yaml:"interop,omitempty"`
}

// InteropAttributes are present on platform-interop modules.
type InteropAttributes struct {
	// MainPackage is the real package the interop module declares into.
	MainPackage string `yaml:"mainPackage"`
	// ExportForwardDeclarations lists opaque forward declarations under a
	// synthetic package, e.g. "cnames.structs.FILE".
	ExportForwardDeclarations []string `yaml:"exportForwardDeclarations,omitempty"`
}

// Module is a fully decoded module of one target.
type Module struct {
	Name      string             `yaml:"name"`
	Interop   *InteropAttributes `yaml:"interop,omitempty"`
	Fragments []*Fragment        `yaml:"fragments"`
}

// Descriptor returns the listing-level view of m.
func (m *Module) Descriptor() ModuleDescriptor {
	return ModuleDescriptor{Name: m.Name, Interop: m.Interop}
}

// Fragment is a package-scoped slice of a module. Package is a pointer so
// that a missing name (fatal for the merge) is distinguishable from the
// root package "".
type Fragment struct {
	Package     *string      `yaml:"package"`
	Classes     []*Class     `yaml:"classes,omitempty"`
	Functions   []*Function  `yaml:"functions,omitempty"`
	Properties  []*Property  `yaml:"properties,omitempty"`
	TypeAliases []*TypeAlias `yaml:"typeAliases,omitempty"`
}

// Class is a classifier declaration. Name is the full metadata class name,
// "pkg/path/Outer.Inner", and therefore encodes the nesting path.
type Class struct {
	Name           string          `yaml:"name"`
	Kind           ClassKind       `yaml:"kind,omitempty"`
	Visibility     string          `yaml:"visibility,omitempty"`
	Modality       string          `yaml:"modality,omitempty"`
	Supertypes     []Type          `yaml:"supertypes,omitempty"`
	TypeParameters []TypeParameter `yaml:"typeParameters,omitempty"`
	Annotations    []Annotation    `yaml:"annotations,omitempty"`
	EnumEntries    []string        `yaml:"enumEntries,omitempty"`
	Companion      string          `yaml:"companion,omitempty"`
	Constructors   []*Constructor  `yaml:"constructors,omitempty"`
	Functions      []*Function     `yaml:"functions,omitempty"`
	Properties     []*Property     `yaml:"properties,omitempty"`
}

// Header returns a copy of c without its member lists. Tree slots keep the
// header only; members live in their own nodes.
func (c *Class) Header() *Class {
	h := *c
	h.Constructors = nil
	h.Functions = nil
	h.Properties = nil
	return &h
}

// Function is a function declaration, top-level or member.
type Function struct {
	Name            string           `yaml:"name"`
	Kind            MemberKind       `yaml:"kind,omitempty"`
	Visibility      string           `yaml:"visibility,omitempty"`
	Modality        string           `yaml:"modality,omitempty"`
	Modifiers       []string         `yaml:"modifiers,omitempty"`
	Receiver        *Type            `yaml:"receiver,omitempty"`
	TypeParameters  []TypeParameter  `yaml:"typeParameters,omitempty"`
	ValueParameters []ValueParameter `yaml:"valueParameters,omitempty"`
	ReturnType      Type             `yaml:"returnType"`
	Annotations     []Annotation     `yaml:"annotations,omitempty"`
}

// Property is a property declaration, top-level or member.
type Property struct {
	Name           string          `yaml:"name"`
	Kind           MemberKind      `yaml:"kind,omitempty"`
	Visibility     string          `yaml:"visibility,omitempty"`
	Modality       string          `yaml:"modality,omitempty"`
	Receiver       *Type           `yaml:"receiver,omitempty"`
	TypeParameters []TypeParameter `yaml:"typeParameters,omitempty"`
	ReturnType     Type            `yaml:"returnType"`
	Mutable        bool            `yaml:"mutable,omitempty"`
	Const          bool            `yaml:"const,omitempty"`
	Annotations    []Annotation    `yaml:"annotations,omitempty"`
}

// Constructor is a class constructor.
type Constructor struct {
	Primary         bool             `yaml:"primary,omitempty"`
	Synthetic       bool             `yaml:"synthetic,omitempty"`
	Visibility      string           `yaml:"visibility,omitempty"`
	ValueParameters []ValueParameter `yaml:"valueParameters,omitempty"`
	Annotations     []Annotation     `yaml:"annotations,omitempty"`
}

// TypeAlias is a top-level type alias. Name is the simple alias name.
type TypeAlias struct {
	Name           string          `yaml:"name"`
	Visibility     string          `yaml:"visibility,omitempty"`
	TypeParameters []TypeParameter `yaml:"typeParameters,omitempty"`
	Underlying     Type            `yaml:"underlying"`
	Expanded       Type            `yaml:"expanded"`
	Annotations    []Annotation    `yaml:"annotations,omitempty"`
}

// ValueParameter is one parameter of a function or constructor.
type ValueParameter struct {
	Name       string `yaml:"name"`
	Type       Type   `yaml:"type"`
	VarargOf   *Type  `yaml:"varargOf,omitempty"`
	HasDefault bool   `yaml:"hasDefault,omitempty"`
}

// TypeParameter is a generic parameter of a class or callable.
type TypeParameter struct {
	Name        string `yaml:"name"`
	Variance    string `yaml:"variance,omitempty"`
	Reified     bool   `yaml:"reified,omitempty"`
	UpperBounds []Type `yaml:"upperBounds,omitempty"`
}

// Type is a type reference. Exactly one of Classifier and TypeParameter is
// set. Abbreviation, when present, is the type alias the reference was
// written with; Classifier is then the per-target expansion.
type Type struct {
	Classifier    string         `yaml:"classifier,omitempty"`
	TypeParameter string         `yaml:"typeParameter,omitempty"`
	Arguments     []TypeArgument `yaml:"arguments,omitempty"`
	Nullable      bool           `yaml:"nullable,omitempty"`
	Abbreviation  *Type          `yaml:"abbreviation,omitempty"`
}

// TypeArgument is a single argument of a parameterized type.
type TypeArgument struct {
	Star     bool   `yaml:"star,omitempty"`
	Variance string `yaml:"variance,omitempty"`
	Type     *Type  `yaml:"type,omitempty"`
}

// Annotation is an annotation usage with its arguments rendered as strings.
type Annotation struct {
	Class     string            `yaml:"class"`
	Arguments map[string]string `yaml:"arguments,omitempty"`
}

// FindAnnotation returns the first annotation of class name in anns.
func FindAnnotation(anns []Annotation, name string) (Annotation, bool) {
	for _, a := range anns {
		if a.Class == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// HasAnnotation reports whether anns contains an annotation of class name.
func HasAnnotation(anns []Annotation, name string) bool {
	_, ok := FindAnnotation(anns, name)
	return ok
}
