package collector

// Kind classifies the construct that introduced a declaration.
type Kind string

const (
	KindVariable Kind = "variable"
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindImport   Kind = "import"
)

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Declaration is one named binding found in a source file. Offset is
// the byte index of the identifier within the file text. Import
// bindings are never marked exported.
type Declaration struct {
	Name     string
	Offset   uint32
	Kind     Kind
	Exported bool
}
