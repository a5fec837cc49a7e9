package placeholder

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind classifies a scanned placeholder token.
type TokenKind int

const (
	// TokenText is a literal text run, including unrecognized brace runs.
	TokenText TokenKind = iota
	// TokenOpen is {N}: the begin token of a paired or split tag.
	TokenOpen
	// TokenClose is {/N}: the end token of a paired or split tag.
	TokenClose
	// TokenSelfClosing is {x:N}.
	TokenSelfClosing
)

// Token is one lexical unit of placeholder text.
type Token struct {
	Kind TokenKind
	ID   string // tag id for tag tokens, empty for text
	Text string // raw source text of the token
}

var (
	placeholderLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "SelfClosing", Pattern: `\{x:\d+\}`},
		{Name: "Close", Pattern: `\{/\d+\}`},
		{Name: "Open", Pattern: `\{\d+\}`},
		{Name: "Text", Pattern: `[^{]+`},
		{Name: "Brace", Pattern: `\{`},
	})

	symbols        = placeholderLexer.Symbols()
	symSelfClosing = symbols["SelfClosing"]
	symClose       = symbols["Close"]
	symOpen        = symbols["Open"]
)

// Scan tokenizes placeholder text. A lone "{" that does not start a
// recognized token is folded into the surrounding literal text, so
// translator-authored braces pass through unharmed. Adjacent literal
// runs are merged into a single TokenText.
func Scan(input string) []Token {
	if input == "" {
		return nil
	}

	lx, err := placeholderLexer.LexString("", input)
	if err != nil {
		// The rule set covers every byte, so lexing cannot fail; treat
		// the impossible as literal text rather than dropping input.
		return []Token{{Kind: TokenText, Text: input}}
	}
	raw, err := lexer.ConsumeAll(lx)
	if err != nil {
		return []Token{{Kind: TokenText, Text: input}}
	}

	var tokens []Token
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenText, Text: text.String()})
			text.Reset()
		}
	}

	for _, tok := range raw {
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case symOpen:
			flush()
			id := strings.TrimSuffix(strings.TrimPrefix(tok.Value, "{"), "}")
			tokens = append(tokens, Token{Kind: TokenOpen, ID: id, Text: tok.Value})
		case symClose:
			flush()
			id := strings.TrimSuffix(strings.TrimPrefix(tok.Value, "{/"), "}")
			tokens = append(tokens, Token{Kind: TokenClose, ID: id, Text: tok.Value})
		case symSelfClosing:
			flush()
			id := strings.TrimSuffix(strings.TrimPrefix(tok.Value, "{x:"), "}")
			tokens = append(tokens, Token{Kind: TokenSelfClosing, ID: id, Text: tok.Value})
		default:
			text.WriteString(tok.Value)
		}
	}
	flush()

	return tokens
}

// HasTokens reports whether the input contains at least one recognized
// placeholder token.
func HasTokens(input string) bool {
	for _, tok := range Scan(input) {
		if tok.Kind != TokenText {
			return true
		}
	}
	return false
}

// StripTokens removes all recognized tokens, returning the literal text.
func StripTokens(input string) string {
	var b strings.Builder
	for _, tok := range Scan(input) {
		if tok.Kind == TokenText {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// literalBraces reports whether any literal text run contains a brace,
// meaning the input held a brace sequence that is not a recognized token.
func literalBraces(tokens []Token) bool {
	for _, tok := range tokens {
		if tok.Kind == TokenText && strings.Contains(tok.Text, "{") {
			return true
		}
	}
	return false
}
