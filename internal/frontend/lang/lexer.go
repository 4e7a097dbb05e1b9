package lang

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer is the stateful token set for this language
// (github.com/alecthomas/participle/v2/lexer). Rule order matters:
// comments come first so "//" is not lexed as two "/" operators, and
// whitespace comes last; both are elided by the parser.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Operator", `(==|!=|<=|>=|[-+*/<>=!])`, nil},
		{"Punctuation", `[{}(),;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
