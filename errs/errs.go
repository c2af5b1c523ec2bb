// Package errs defines the error kinds raised throughout grammar
// construction, scanning, and parsing, and a Diagnostics collector for
// accumulating the non-fatal ones so they can be reported together at the
// end of a build.
package errs

import (
	"fmt"

	"github.com/dekarrin/loach/types"
)

// Position locates an error in source text when no token is available
// (e.g. while reading a grammar definition document, before scanning
// exists).
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, col %d", p.Line, p.Col)
}

// DefinitionError is raised while reading or validating a grammar
// definition document: unknown section header, malformed pattern,
// reference to an undeclared symbol, and the like.
type DefinitionError struct {
	Pos     Position
	Message string
	cause   error
}

func NewDefinitionError(pos Position, msg string) *DefinitionError {
	return &DefinitionError{Pos: pos, Message: msg}
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *DefinitionError) Unwrap() error { return e.cause }

// ScanError is raised by the scanner runtime: no pattern matches at the
// current input position, or a pattern's action references an undefined
// state.
type ScanError struct {
	Line    int
	LinePos int
	Message string
	cause   error
}

func NewScanError(line, linePos int, msg string) *ScanError {
	return &ScanError{Line: line, LinePos: linePos, Message: msg}
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.LinePos, e.Message)
}

func (e *ScanError) Unwrap() error { return e.cause }

// ParseError is raised by the deterministic driver or the generalized
// parser when a token is unexpected in the current state and no error
// production lets recovery continue.
type ParseError struct {
	Token   types.Token
	Message string
	cause   error
}

func NewParseError(tok types.Token, msg string) *ParseError {
	return &ParseError{Token: tok, Message: msg}
}

func (e *ParseError) Error() string {
	if e.Token == nil {
		return e.Message
	}
	return fmt.Sprintf("line %d, col %d: %s", e.Token.Line(), e.Token.LinePos(), e.Message)
}

func (e *ParseError) Unwrap() error { return e.cause }

// DriverError is raised for conditions that indicate the parse table or
// automaton itself is inconsistent (a GOTO entry missing where the table
// construction should have guaranteed one, a GSS node with no viable
// predecessor) rather than a problem with the input being parsed.
type DriverError struct {
	Message string
	cause   error
}

func NewDriverError(msg string) *DriverError {
	return &DriverError{Message: msg}
}

func (e *DriverError) Error() string {
	return e.Message
}

func (e *DriverError) Unwrap() error { return e.cause }
