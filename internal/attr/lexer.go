// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"context"
	"go/scanner"
	"go/token"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/iter"
)

type Token struct {
	Type  token.Token
	Value string
	// Offset and End are byte offsets into the joined argument text.
	Offset int
	End    int
}

func (t *Token) String() string {
	if t.Value != "" {
		return t.Value
	}
	return t.Type.String()
}

// automatic reports whether the token is a semicolon that the Go scanner
// inserted at a line break rather than one written in the source.
func (t *Token) automatic() bool {
	return t.Type == token.SEMICOLON && t.Value == "\n"
}

// Lexer tokenizes directive argument text with the Go scanner so that every
// expression follows the Go lexical grammar.
type Lexer struct {
	src     string
	scanner scanner.Scanner
	file    *token.File
	err     *scanError
}

type scanError struct {
	offset  int
	message string
}

func NewLexer(src string) *Lexer {
	fset := token.NewFileSet()
	l := &Lexer{
		src:  src,
		file: fset.AddFile("", fset.Base(), len(src)),
	}
	l.scanner.Init(l.file, []byte(src), func(pos token.Position, msg string) {
		if l.err == nil {
			l.err = &scanError{offset: pos.Offset, message: msg}
		}
	}, 0)
	return l
}

// Tokens returns every token of the source except the semicolons inserted
// at line breaks. Directive arguments may span several lines so those
// carry no meaning here.
func (l *Lexer) Tokens() api.Iterator[*Token] {
	raw := iter.NewFunc(func(ctx context.Context) (*Token, bool) {
		pos, tok, lit := l.scanner.Scan()
		if tok == token.EOF {
			return nil, false
		}
		offset := l.file.Offset(pos)
		value := lit
		end := offset + len(lit)
		switch {
		case tok == token.SEMICOLON, tok == token.ILLEGAL, tok.IsLiteral():
		default:
			value = tok.String()
			end = offset + len(value)
		}
		if end > len(l.src) {
			end = len(l.src)
		}
		return &Token{Type: tok, Value: value, Offset: offset, End: end}, true
	})
	return iter.NewIteratorFilter(raw, api.Filter[*Token](iter.FilterFunc[*Token](func(ctx context.Context, t *Token) bool {
		return !t.automatic()
	})))
}
