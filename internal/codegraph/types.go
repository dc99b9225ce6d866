// Package codegraph holds the data model shared by the parser dispatch,
// graph store, vector index, and indexing pipeline (spec §3).
package codegraph

// Language is a closed enumeration of supported source languages, with
// Unknown as the wildcard fallback for unrecognized extensions.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangCSharp     Language = "c_sharp"
	LangUnknown    Language = "unknown"
)

// SymbolKind is the closed set of recognized declaration kinds.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindClass       SymbolKind = "class"
	KindStruct      SymbolKind = "struct"
	KindEnum        SymbolKind = "enum"
	KindInterface   SymbolKind = "interface"
	KindTrait       SymbolKind = "trait"
	KindModule      SymbolKind = "module"
	KindConstant    SymbolKind = "constant"
	KindVariable    SymbolKind = "variable"
	KindType        SymbolKind = "type"
	KindProperty    SymbolKind = "property"
	KindField       SymbolKind = "field"
	KindConstructor SymbolKind = "constructor"
	KindDestructor  SymbolKind = "destructor"
	KindOperator    SymbolKind = "operator"
	KindMacro       SymbolKind = "macro"
	KindNamespace   SymbolKind = "namespace"
	KindPackage     SymbolKind = "package"
	KindUnknown     SymbolKind = "unknown"
)

// Visibility is the closed set of access modifiers.
type Visibility string

const (
	VisPublic      Visibility = "public"
	VisPublicCrate Visibility = "public_crate"
	VisPublicSuper Visibility = "public_super"
	VisProtected   Visibility = "protected"
	VisPrivate     Visibility = "private"
	VisInternal    Visibility = "internal"
	VisUnknown     Visibility = "unknown"
)

// ReferenceKind is the closed set of reference kinds.
type ReferenceKind string

const (
	RefCall            ReferenceKind = "call"
	RefTypeReference   ReferenceKind = "type_reference"
	RefFieldAccess     ReferenceKind = "field_access"
	RefImport          ReferenceKind = "import"
	RefInheritance     ReferenceKind = "inheritance"
	RefMacroInvocation ReferenceKind = "macro_invocation"
	RefVariableRef     ReferenceKind = "variable_reference"
)

// Location is a byte-exact, line/column-exact source range. All four
// fields are required and mutually consistent (invariant §3.2).
type Location struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	StartByte int
	EndByte   int
}

// FileID, SymbolID are opaque identifiers assigned by the graph store.
type FileID int64
type SymbolID int64

// File is a persisted source file record.
type File struct {
	ID          FileID
	Path        string
	Language    Language
	Hash        string // 64 hex chars of SHA-256
	Size        int64
	Description string
}

// Symbol is a persisted named, located declaration.
type Symbol struct {
	ID           SymbolID
	Name         string
	Kind         SymbolKind
	FileID       FileID
	Location     Location
	ParentID     *SymbolID
	Signature    string
	DocComment   string
	Visibility   Visibility
	IsEntryPoint bool
}

// Reference is a persisted byte-located use of one symbol from within
// another. No self-references are permitted (invariant §3.4).
type Reference struct {
	FromSymbolID SymbolID
	ToSymbolID   SymbolID
	Kind         ReferenceKind
	Location     Location
}

// ParsedSymbol is the pre-persistence form of Symbol, carrying nested
// children instead of a resolved parent id.
type ParsedSymbol struct {
	Name       string
	Kind       SymbolKind
	Location   Location
	Signature  string
	DocComment string
	Visibility Visibility
	Children   []ParsedSymbol
}

// ParsedReference is the pre-persistence form of Reference. Name is the
// identifier text being referenced (not resolved yet). The analyzers
// leave ContainingSymbolHint at its zero value and the indexer neither
// reads nor sets it; the indexer finds each reference's innermost
// enclosing symbol from the file's symbol ranges instead.
type ParsedReference struct {
	Name                 string
	Kind                 ReferenceKind
	Location             Location
	ContainingSymbolHint int
}

// ParsedFile is the output of the parser dispatch for one source buffer.
type ParsedFile struct {
	Symbols    []ParsedSymbol
	References []ParsedReference
}

// Status is the indexer's persisted metadata singleton.
type Status struct {
	IndexedFiles        int64
	IndexedSymbols      int64
	EmbeddingDimensions int
	EmbeddingModel      string
	LastIndexed         *int64 // unix seconds, nil before first run
	StorageSizeBytes    int64
}

// IndexProgress is the live result of one indexing run.
type IndexProgress struct {
	FilesProcessed int
	FilesTotal     int
	SymbolsIndexed int
	Errors         []string
}
