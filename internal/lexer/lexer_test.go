package lexer_test

import (
	"testing"

	"unitd/internal/diag"
	"unitd/internal/lexer"
	"unitd/internal/source"
	"unitd/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string, start uint32) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/test.c", []byte(input))
	bag := diag.NewBag(0)
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}, Start: start})
	return lx, bag
}

// collectAllTokens собирает все токены до EOF
func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{"decl", "int x = 1;", []token.Kind{token.KwInt, token.Ident, token.Assign, token.IntLit, token.Semicolon, token.EOF}},
		{"float", "1.5e3f .5 0x1p3", []token.Kind{token.FloatLit, token.FloatLit, token.FloatLit, token.EOF}},
		{"ints", "0x1F 017 10ul", []token.Kind{token.IntLit, token.IntLit, token.IntLit, token.EOF}},
		{"ops", "a->b <<= c ... ##", []token.Kind{token.Ident, token.Arrow, token.Ident, token.ShlAssign, token.Ident, token.Ellipsis, token.HashHash, token.EOF}},
		{"strings", `"a\"b" 'c'`, []token.Kind{token.StringLit, token.CharLit, token.EOF}},
		{"comments", "/* x */ a // y\nb", []token.Kind{token.Ident, token.Ident, token.EOF}},
		{"bool keyword", "_Bool flag;", []token.Kind{token.KwBool, token.Ident, token.Semicolon, token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx, bag := makeTestLexer(tt.input, 0)
			got := kinds(collectAllTokens(lx))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
			if bag.Len() != 0 {
				t.Errorf("unexpected diagnostics: %v", bag.Items())
			}
		})
	}
}

func TestLexerStartOfLine(t *testing.T) {
	lx, _ := makeTestLexer("a b\n  c /* x\n */ d \\\n e", 0)
	toks := collectAllTokens(lx)
	want := []bool{true, false, true, true, false}
	for i, w := range want {
		if toks[i].AtStartOfLine() != w {
			t.Errorf("token %q: start of line = %v, want %v", toks[i].Text, toks[i].AtStartOfLine(), w)
		}
	}
	if toks[1].Flags&token.FlagLeadingSpace == 0 {
		t.Errorf("expected leading space on %q", toks[1].Text)
	}
}

func TestLexerStartOffset(t *testing.T) {
	src := "#include <a.h>\nint y;"
	lx, _ := makeTestLexer(src, 15)
	toks := collectAllTokens(lx)
	if toks[0].Kind != token.KwInt || toks[0].Span.Start != 15 {
		t.Fatalf("expected int at 15, got %v at %d", toks[0].Kind, toks[0].Span.Start)
	}
	if !toks[0].AtStartOfLine() {
		t.Error("token after the resume point must start a line")
	}
}

func TestLexerHeaderName(t *testing.T) {
	lx, _ := makeTestLexer("#include <sys/x.h>\n", 0)
	if tok := lx.Next(); tok.Kind != token.Hash {
		t.Fatalf("expected #, got %v", tok.Kind)
	}
	if tok := lx.Next(); tok.Text != "include" {
		t.Fatalf("expected include, got %q", tok.Text)
	}
	hn, ok := lx.NextHeaderName()
	if !ok || hn.Kind != token.HeaderName || hn.Text != "<sys/x.h>" {
		t.Fatalf("got %v %q ok=%v", hn.Kind, hn.Text, ok)
	}
	if _, ok := lx.NextHeaderName(); ok {
		t.Error("second header name must not be found")
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diag.Code
	}{
		{`"abc`, diag.LexUnterminatedString},
		{"'a", diag.LexUnterminatedChar},
		{"/* open", diag.LexUnterminatedBlockComment},
		{"12abc", diag.LexBadNumber},
		{"@", diag.LexUnknownChar},
	}
	for _, tt := range tests {
		lx, bag := makeTestLexer(tt.input, 0)
		collectAllTokens(lx)
		if bag.Len() != 1 || bag.Items()[0].Code != tt.code {
			t.Errorf("%q: expected %s, got %v", tt.input, tt.code.ID(), bag.Items())
		}
	}
}

func TestLexerQuiet(t *testing.T) {
	lx, bag := makeTestLexer(`"abc`, 0)
	lx.SetQuiet(true)
	collectAllTokens(lx)
	if bag.Len() != 0 {
		t.Errorf("quiet lexer reported %d diagnostics", bag.Len())
	}
}
