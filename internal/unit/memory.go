package unit

import (
	"unsafe"

	"unitd/internal/ast"
	"unitd/internal/diag"
	"unitd/internal/token"
)

var (
	declIDSize = uint64(unsafe.Sizeof(ast.DeclID(0)))
	diagSize   = uint64(unsafe.Sizeof(diag.Diagnostic{}))
	tokenSize  = uint64(unsafe.Sizeof(token.Token{}))
)

// UsedBytes estimates the memory held by the unit: its own slices plus
// everything the session keeps alive. It is advisory and grows with the
// size of the translation unit.
func (u *ParsedUnit) UsedBytes() uint64 {
	if u == nil {
		return 0
	}
	total := uint64(cap(u.localDecls))*declIDSize + uint64(cap(u.diags))*diagSize
	total += u.tokens.memoryUsage()
	total += u.session.MemoryUsage()
	return total
}
