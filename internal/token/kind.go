package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit
	FloatLit
	CharLit
	StringLit
	// HeaderName is an angle-bracketed file name, lexed only inside #include.
	HeaderName

	// Keywords.
	KwAuto
	KwBool
	KwBreak
	KwCase
	KwChar
	KwConst
	KwContinue
	KwDefault
	KwDo
	KwDouble
	KwElse
	KwEnum
	KwExtern
	KwFloat
	KwFor
	KwGoto
	KwIf
	KwInline
	KwInt
	KwLong
	KwRegister
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStruct
	KwSwitch
	KwTypedef
	KwUnion
	KwUnsigned
	KwVoid
	KwVolatile
	KwWhile

	// Punctuation and operators.
	Hash     // #
	HashHash // ##
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Dot
	Arrow    // ->
	Ellipsis // ...
	Question
	Colon
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	Bang
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign
	AmpAssign
	PipeAssign
	CaretAssign
	ShlAssign
	ShrAssign
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Shl
	Shr
	AndAnd
	OrOr
	PlusPlus
	MinusMinus
)

var kindNames = [...]string{
	Invalid: "invalid", EOF: "eof", Ident: "identifier", IntLit: "integer literal",
	FloatLit: "float literal", CharLit: "char literal", StringLit: "string literal",
	HeaderName: "header name",
	KwAuto: "auto", KwBool: "_Bool", KwBreak: "break", KwCase: "case", KwChar: "char",
	KwConst: "const", KwContinue: "continue", KwDefault: "default", KwDo: "do",
	KwDouble: "double", KwElse: "else", KwEnum: "enum", KwExtern: "extern",
	KwFloat: "float", KwFor: "for", KwGoto: "goto", KwIf: "if", KwInline: "inline",
	KwInt: "int", KwLong: "long", KwRegister: "register", KwReturn: "return",
	KwShort: "short", KwSigned: "signed", KwSizeof: "sizeof", KwStatic: "static",
	KwStruct: "struct", KwSwitch: "switch", KwTypedef: "typedef", KwUnion: "union",
	KwUnsigned: "unsigned", KwVoid: "void", KwVolatile: "volatile", KwWhile: "while",
	Hash: "#", HashHash: "##", LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Semicolon: ";", Comma: ",", Dot: ".", Arrow: "->",
	Ellipsis: "...", Question: "?", Colon: ":", Plus: "+", Minus: "-", Star: "*",
	Slash: "/", Percent: "%", Amp: "&", Pipe: "|", Caret: "^", Tilde: "~", Bang: "!",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=",
	PercentAssign: "%=", AmpAssign: "&=", PipeAssign: "|=", CaretAssign: "^=",
	ShlAssign: "<<=", ShrAssign: ">>=", EqEq: "==", BangEq: "!=", Lt: "<", LtEq: "<=",
	Gt: ">", GtEq: ">=", Shl: "<<", Shr: ">>", AndAnd: "&&", OrOr: "||",
	PlusPlus: "++", MinusMinus: "--",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwAuto && k <= KwWhile
}

// IsPunctOrOp reports whether k is punctuation or an operator.
func (k Kind) IsPunctOrOp() bool {
	return k >= Hash && k <= MinusMinus
}

// IsLiteral reports whether k is a numeric, char or string literal.
func (k Kind) IsLiteral() bool {
	switch k {
	case IntLit, FloatLit, CharLit, StringLit:
		return true
	default:
		return false
	}
}
