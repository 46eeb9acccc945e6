package extract

import (
	"fmt"

	"github.com/go-clang/clang-v15/clang"
)

// ClangSource parses translation units through libclang. A single shared
// index backs every parse; libclang is not thread-safe on a shared index, so
// callers must not use a ClangSource concurrently.
type ClangSource struct {
	idx clang.Index
}

// NewClangSource creates a libclang-backed source. Close must be called to
// release the index.
func NewClangSource() *ClangSource {
	// Keep declarations from PCH files, do not print diagnostics: parse
	// errors surface through the returned error instead of stderr noise.
	return &ClangSource{idx: clang.NewIndex(0, 0)}
}

// Parse parses a translation unit. When target is empty the source file is
// expected to be named by args, which is how compilation-database commands
// arrive.
func (s *ClangSource) Parse(target string, args []string) (TranslationUnit, error) {
	var tu clang.TranslationUnit
	errCode := s.idx.ParseTranslationUnit2(target, args, nil, clang.DefaultEditingTranslationUnitOptions(), &tu)
	if clang.ErrorCode(errCode) != clang.Error_Success {
		return nil, fmt.Errorf("libclang: %s", clang.ErrorCode(errCode).Spelling())
	}
	return &clangTranslationUnit{tu: tu}, nil
}

// Close disposes the shared index.
func (s *ClangSource) Close() {
	s.idx.Dispose()
}

type clangTranslationUnit struct {
	tu clang.TranslationUnit
}

func (u *clangTranslationUnit) Root() Entity {
	return clangEntity{cursor: u.tu.TranslationUnitCursor()}
}

func (u *clangTranslationUnit) Dispose() {
	u.tu.Dispose()
}

// clangEntity adapts a clang.Cursor to the Entity interface.
type clangEntity struct {
	cursor clang.Cursor
}

func (e clangEntity) Kind() Kind {
	switch e.cursor.Kind() {
	case clang.Cursor_StringLiteral:
		return KindStringLiteral
	case clang.Cursor_StructDecl:
		return KindStructDecl
	case clang.Cursor_ClassDecl:
		return KindClassDecl
	default:
		return KindOther
	}
}

func (e clangEntity) DisplayName() string {
	return e.cursor.DisplayName()
}

func (e clangEntity) Location() (string, uint32, bool) {
	file, line, _, _ := e.cursor.Location().FileLocation()
	name := file.Name()
	if name == "" {
		return "", 0, false
	}
	return name, line, true
}

func (e clangEntity) InSystemHeader() bool {
	return e.cursor.Location().IsInSystemHeader()
}

func (e clangEntity) Children() []Entity {
	var children []Entity
	e.cursor.Visit(func(cursor, _ clang.Cursor) clang.ChildVisitResult {
		children = append(children, clangEntity{cursor: cursor})
		return clang.ChildVisit_Continue
	})
	return children
}
