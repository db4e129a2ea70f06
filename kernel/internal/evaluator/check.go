package evaluator

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/scusemua/notebook-kernel/kernel/domain"
)

const (
	filePrefix = "package main;"
	funcPrefix = "package main; func main() {"
)

// source is code as the interpreter sees it: either package-level declarations, or statements that are
// run as the body of a function. The interpreter decides by the first token, and so do we.
type source struct {
	code  string
	decls bool
}

func newSource(code string) source {
	s := source{code: code}

	var sc scanner.Scanner
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(code))
	sc.Init(file, []byte(code), nil, scanner.ScanComments)

	for {
		_, tok, _ := sc.Scan()
		switch tok {
		case token.COMMENT, token.SEMICOLON:
			continue
		case token.PACKAGE, token.CONST, token.FUNC, token.IMPORT, token.TYPE, token.VAR:
			s.decls = true
		}

		return s
	}
}

func (s source) hasPackage() bool {
	return strings.HasPrefix(strings.TrimSpace(s.code), "package ")
}

// complete returns the code wrapped into a file, closing the function body if needed.
func (s source) complete() string {
	switch {
	case s.hasPackage():
		return s.code
	case s.decls:
		return filePrefix + s.code
	default:
		return funcPrefix + s.code + "\n}"
	}
}

// open returns the code wrapped into a file without closing the function body.
func (s source) open() string {
	switch {
	case s.hasPackage():
		return s.code
	case s.decls:
		return filePrefix + s.code
	default:
		return funcPrefix + s.code + "\n"
	}
}

// parse parses src, returning the file and the parse errors, if any.
func parse(src string) (*ast.File, scanner.ErrorList) {
	file, err := parser.ParseFile(token.NewFileSet(), "", src, parser.ParseComments)
	if err == nil {
		return file, nil
	}

	if list, ok := err.(scanner.ErrorList); ok {
		return file, list
	}

	return file, scanner.ErrorList{&scanner.Error{Msg: err.Error()}}
}

// atEOF returns true if every error is reported at the end of src.
func atEOF(src string, errs scanner.ErrorList) bool {
	end := len(strings.TrimRight(src, " \t\r\n"))
	for _, e := range errs {
		if e.Pos.Offset < end {
			return false
		}
	}

	return len(errs) > 0
}

// Check reports whether code is ready to be evaluated. It only parses code.
//
// Code that parses is complete. Code that does not parse is incomplete if it only lacks
// something at its end, such as a closing brace or the operand of a trailing operator.
func Check(code string) domain.CheckResult {
	if strings.TrimSpace(code) == "" {
		return domain.CheckComplete
	}

	s := newSource(code)
	if _, errs := parse(s.complete()); errs == nil {
		return domain.CheckComplete
	}

	open := s.open()
	if _, errs := parse(open); atEOF(open, errs) {
		return domain.CheckIncomplete
	}

	return domain.CheckInvalid
}

// producesValue returns true if the last statement of code is an expression whose value should be shown.
// Calls to the print functions of fmt and the print builtins are run for their output only.
func producesValue(code string) bool {
	s := newSource(code)
	if s.decls || s.hasPackage() {
		return false
	}

	file, errs := parse(s.complete())
	if errs != nil || file == nil {
		return false
	}

	var body []ast.Stmt
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "main" && fn.Body != nil {
			body = fn.Body.List
		}
	}

	// Trailing semicolons parse as empty statements.
	for len(body) > 0 {
		if _, ok := body[len(body)-1].(*ast.EmptyStmt); !ok {
			break
		}
		body = body[:len(body)-1]
	}

	if len(body) == 0 {
		return false
	}

	stmt, ok := body[len(body)-1].(*ast.ExprStmt)
	if !ok {
		return false
	}

	return !isPrintCall(stmt.X)
}

func isPrintCall(expr ast.Expr) bool {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return false
	}

	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name == "print" || fn.Name == "println"
	case *ast.SelectorExpr:
		pkg, ok := fn.X.(*ast.Ident)
		return ok && pkg.Name == "fmt" && strings.HasPrefix(fn.Sel.Name, "Print")
	default:
		return false
	}
}
