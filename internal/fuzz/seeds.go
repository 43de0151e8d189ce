package fuzztests

import "testing"

const maxSeedBytes = 64 << 10 // 64 KiB cap for corpus entries

// cSeeds cover directives, macro expansion and recovery paths.
var cSeeds = []string{
	"",
	"int main(void) { return 0; }\n",
	"#include \"a.h\"\n#include <sys.h>\nint x = A;\n",
	"// c\n/* block\n */\n#define F(x) ((x) + 1)\nint y = F(2);\n",
	"#ifndef G\n#define G\nint g;\n#endif\n",
	"#if 0\n#error never\n#else\n#warning shown\n#endif\n",
	"#define S(a) #a\n#define C(a, b) a ## b\nint C(x, y) = sizeof S(z);\n",
	"int f(int);\nint k = f(1, 2);\nint z = missing_name;\n",
	"#include \"a.h\"\n#include \"a.h\"\nint m; // NOLINT\n",
	"#pragma once\n#define LONG 1 + \\\n  2\n",
	"#include\n#define\n#if\n",
	"struct s { int a; } v = { 1, };\nint *p = &v.a;\n",
	"/* unterminated",
	"\"unterminated\n'x\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range cSeeds {
		f.Add(clampSeed([]byte(s)))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
