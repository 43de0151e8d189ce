package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KwInt, "int"},
		{Arrow, "->"},
		{ShlAssign, "<<="},
		{HeaderName, "header name"},
		{Kind(250), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKeywordTableMatchesNames(t *testing.T) {
	for lexeme, kind := range keywords {
		if !kind.IsKeyword() {
			t.Errorf("%q maps to non-keyword kind %v", lexeme, kind)
		}
		if kind.String() != lexeme {
			t.Errorf("keyword %q prints as %q", lexeme, kind.String())
		}
	}
	if _, ok := LookupKeyword("Int"); ok {
		t.Error("keywords must be case sensitive")
	}
}

func TestKindClasses(t *testing.T) {
	if !Hash.IsPunctOrOp() || !MinusMinus.IsPunctOrOp() || Ident.IsPunctOrOp() {
		t.Error("punctuation range is wrong")
	}
	if !StringLit.IsLiteral() || HeaderName.IsLiteral() {
		t.Error("literal classification is wrong")
	}
}
