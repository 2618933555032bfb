// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"strings"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/iter"
)

// Parse reads the argument grammar shared by both directive forms:
//
//	list := identifier '=' '{' expr (',' expr)* ','? '}' (',' list)? ','?
//
// The segments are joined with line breaks before tokenizing so that a
// group or an expression may continue on the next directive line.
func Parse(ctx context.Context, segments []Segment) (*ParameterizedList, exc.Exception) {
	src, starts := join(segments)
	lexer := NewLexer(src)
	p := &parserTokens{
		ctx:      ctx,
		src:      src,
		segments: segments,
		starts:   starts,
		tokens:   iter.NewLookahead(lexer.Tokens(), 1),
	}
	result := p.parseParameterizedList()
	if lexer.err != nil {
		// The scanner error is more precise than whatever the parser made of
		// the damaged token.
		return nil, exc.New(p.locate(lexer.err.offset), exc.CodeSyntax, lexer.err.message)
	}
	if p.err != nil {
		return nil, p.err
	}
	return result, nil
}

func join(segments []Segment) (string, []int) {
	var b strings.Builder
	starts := make([]int, 0, len(segments))
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		starts = append(starts, b.Len())
		b.WriteString(s.Text)
	}
	return b.String(), starts
}

type parserTokens struct {
	ctx      context.Context
	src      string
	segments []Segment
	starts   []int
	tokens   api.Lookahead[*Token]
	// end of the last consumed token, used to place "unexpected EOF" errors.
	last int
	err  exc.Exception
}

// locate maps an offset in the joined text back to the directive line it
// came from.
func (p *parserTokens) locate(offset int) exc.Location {
	if len(p.segments) == 0 {
		return exc.Location{}
	}
	idx := 0
	for i, start := range p.starts {
		if start > offset {
			break
		}
		idx = i
	}
	return p.segments[idx].Location.Shift(offset - p.starts[idx])
}

func (p *parserTokens) fail(offset int, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	p.err = exc.Newf(p.locate(offset), exc.CodeSyntax, format, args...)
}

func (p *parserTokens) failEOF(expecting string) {
	if p.err != nil {
		return
	}
	p.err = exc.Newf(p.locate(p.last), exc.CodeUnexpectedEOF, "unexpected end of directive (expecting %s)", expecting)
}

func (p *parserTokens) peek() *Token {
	maybeToken := p.tokens.Lookahead(p.ctx, 0)
	if !maybeToken.IsPresent() {
		return nil
	}
	return maybeToken.Value()
}

func (p *parserTokens) advance() {
	maybeToken := p.tokens.Next(p.ctx)
	if maybeToken.IsPresent() {
		p.last = maybeToken.Value().End
	}
}

// reports an error if the current token isn't of the expected type.
// advances on success
func (p *parserTokens) expect(expected token.Token, what string) *Token {
	t := p.peek()
	if t == nil {
		p.failEOF(what)
		return nil
	}
	if t.Type != expected {
		p.fail(t.Offset, "unexpected %s (expecting %s)", t, what)
		return nil
	}
	p.advance()
	return t
}

func (p *parserTokens) parseParameterizedList() *ParameterizedList {
	result := &ParameterizedList{}
	for p.peek() != nil {
		list := p.parseParameterList()
		if list == nil {
			return nil
		}
		result.Lists = append(result.Lists, *list)

		if p.peek() == nil {
			break
		}
		if p.expect(token.COMMA, "',' between lists") == nil {
			return nil
		}
	}
	return result
}

func (p *parserTokens) parseParameterList() *ParameterList {
	id := p.expect(token.IDENT, "an identifier")
	if id == nil {
		return nil
	}
	if p.expect(token.ASSIGN, fmt.Sprintf("'=' after %s", id.Value)) == nil {
		return nil
	}
	values, ok := p.parseValues()
	if !ok {
		return nil
	}
	return &ParameterList{
		ID:         id.Value,
		IDLocation: p.locate(id.Offset),
		Values:     values,
	}
}

// parseValues reads a brace-delimited list of zero or more comma-separated
// expressions, allowing an optional trailing comma.
func (p *parserTokens) parseValues() ([]Value, bool) {
	if p.expect(token.LBRACE, "'{'") == nil {
		return nil, false
	}
	values := []Value{}
	for {
		t := p.peek()
		if t == nil {
			p.failEOF("'}'")
			return nil, false
		}
		if t.Type == token.RBRACE {
			p.advance()
			return values, true
		}

		v := p.parseValue()
		if v == nil {
			return nil, false
		}
		values = append(values, *v)

		t = p.peek()
		if t == nil {
			p.failEOF("',' or '}'")
			return nil, false
		}
		if t.Type == token.RBRACE {
			continue
		}
		if p.expect(token.COMMA, "',' or '}'") == nil {
			return nil, false
		}
	}
}

// parseValue consumes tokens up to the next ',' or '}' that is not nested in
// brackets and checks that the consumed text is a Go expression.
func (p *parserTokens) parseValue() *Value {
	first := p.peek()
	start, end := first.Offset, first.Offset
	depth := 0
	for {
		t := p.peek()
		if t == nil {
			p.failEOF("'}'")
			return nil
		}
		stop := false
		switch t.Type {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth = depth + 1
		case token.RPAREN, token.RBRACK:
			if depth == 0 {
				p.fail(t.Offset, "unexpected %s", t)
				return nil
			}
			depth = depth - 1
		case token.RBRACE:
			if depth == 0 {
				stop = true
			} else {
				depth = depth - 1
			}
		case token.COMMA:
			stop = depth == 0
		}
		if stop {
			break
		}
		end = t.End
		p.advance()
	}
	if end == start {
		p.fail(start, "expected expression")
		return nil
	}
	text := strings.TrimSpace(p.src[start:end])
	expr, err := parser.ParseExpr(text)
	if err != nil {
		p.fail(start, "invalid expression %q: %s", text, trimParseError(err))
		return nil
	}
	return &Value{
		Text:     text,
		Expr:     expr,
		Location: p.locate(start),
	}
}

// trimParseError drops the synthetic file position that go/parser prefixes
// to messages about expression source.
func trimParseError(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 && strings.HasPrefix(msg, "1:") {
		return msg[idx+2:]
	}
	return msg
}
