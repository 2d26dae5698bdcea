package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokCapture
	tokRest
	tokWildcard
	tokNilPred
	tokNil
	tokSymbol
	tokInt
	tokString
	tokIdent
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of pattern"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokCapture:
		return "'$'"
	case tokRest:
		return "'...'"
	case tokWildcard:
		return "'_'"
	case tokNilPred:
		return "'nil?'"
	case tokNil:
		return "'nil'"
	case tokSymbol:
		return "symbol"
	case tokInt:
		return "integer"
	case tokString:
		return "string"
	case tokIdent:
		return "node type"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSymbolByte(c byte) bool {
	return isIdentByte(c) || strings.IndexByte("?!=<>+-*/%[]", c) >= 0
}

// lex splits a pattern into tokens.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '{':
			toks = append(toks, token{tokLBrace, "{", i})
			i++
		case c == '}':
			toks = append(toks, token{tokRBrace, "}", i})
			i++
		case c == '$':
			toks = append(toks, token{tokCapture, "$", i})
			i++
		case strings.HasPrefix(src[i:], "..."):
			toks = append(toks, token{tokRest, "...", i})
			i += 3
		case c == ':':
			j := i + 1
			for j < len(src) && isSymbolByte(src[j]) {
				j++
			}
			if j == i+1 {
				return nil, syntaxErr(i, "empty symbol")
			}
			toks = append(toks, token{tokSymbol, src[i+1 : j], i})
			i = j
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return nil, syntaxErr(i, "unterminated string")
			}
			text, err := strconv.Unquote(src[i : j+1])
			if err != nil {
				return nil, syntaxErr(i, "bad string literal")
			}
			toks = append(toks, token{tokString, text, i})
			i = j + 1
		case c == '-' || c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '_') {
				j++
			}
			if src[i:j] == "-" {
				return nil, syntaxErr(i, "dangling '-'")
			}
			toks = append(toks, token{tokInt, src[i:j], i})
			i = j
		case isIdentByte(c):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			if j < len(src) && src[j] == '?' {
				j++
			}
			word := src[i:j]
			switch word {
			case "_":
				toks = append(toks, token{tokWildcard, word, i})
			case "nil?":
				toks = append(toks, token{tokNilPred, word, i})
			case "nil":
				toks = append(toks, token{tokNil, word, i})
			default:
				toks = append(toks, token{tokIdent, word, i})
			}
			i = j
		default:
			return nil, syntaxErr(i, fmt.Sprintf("unexpected %q", c))
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}
