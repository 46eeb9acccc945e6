// Package leak defines the leak data model shared across the pipeline and
// the string-literal decoder that turns a literal's lexical form into the
// exact bytes a compiler emits for it.
package leak

import (
	"encoding/json"
	"fmt"
)

// DataType describes the kind of source-declared data that may leak.
type DataType int

const (
	// StringLiteral identifies data coming from a string literal.
	StringLiteral DataType = iota

	// StructName identifies the name of a C/C++ struct.
	StructName

	// ClassName identifies the name of a C++ class.
	ClassName
)

// String returns the human-readable form used by the text report.
func (t DataType) String() string {
	switch t {
	case StringLiteral:
		return "string literal"
	case StructName:
		return "struct name"
	case ClassName:
		return "class name"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// jsonName returns the identifier used by the JSON report format.
func (t DataType) jsonName() string {
	switch t {
	case StringLiteral:
		return "StringLiteral"
	case StructName:
		return "StructName"
	case ClassName:
		return "ClassName"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// MarshalJSON serializes the data type under its report identifier.
func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.jsonName())
}

// SourceLocation identifies where a piece of data is declared in the source
// tree. Many leaks may reference the same instance; it is shared by pointer
// and never mutated after extraction.
type SourceLocation struct {
	// File is the canonical path of the declaring file.
	File string `json:"file"`

	// Line is the 1-based line of the declaration.
	Line uint32 `json:"line"`
}

// BinaryLocation identifies where a byte pattern was found in the target
// binary.
type BinaryLocation struct {
	// File is the canonical path of the scanned binary.
	File string `json:"file"`

	// Offset is the byte offset of the match.
	Offset uint64 `json:"offset"`
}

// Location pairs the source declaration of a confirmed leak with the binary
// position it was found at.
type Location struct {
	Source *SourceLocation `json:"source"`
	Binary BinaryLocation  `json:"binary"`
}

// Potential is an artifact extracted from source that has not yet been
// confirmed in the binary. Instances are immutable after extraction.
type Potential struct {
	// Type is the kind of data the artifact represents.
	Type DataType

	// Data is the artifact as it appears in source: the payload of a string
	// literal (prefix and quotes stripped, escapes left as written), or the
	// identifier of a struct/class declaration. Equality between artifacts
	// is keyed on this field.
	Data string

	// Bytes is the pattern to search for in the binary.
	Bytes []byte

	// Origin is where the artifact is declared. Shared across leaks that
	// originate from the same declaration.
	Origin *SourceLocation
}

// Confirmed is a potential leak whose byte pattern was located in the target
// binary.
type Confirmed struct {
	Type     DataType `json:"data_type"`
	Data     string   `json:"data"`
	Location Location `json:"location"`
}
