package source

import "unsafe"

type StringID uint32

const NoStringID StringID = 0

// Interner сопоставляет написанию идентификатора компактный id.
// Препроцессор держит один на сессию как таблицу идентификаторов.
type Interner struct {
	byID  []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index map[string]StringID // строка -> ID
	bytes uint64
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern вставляет строку и возвращает её ID.
// Если строка уже есть, возвращает её ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// собственная копия, чтобы не держать исходный буфер
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	i.bytes += uint64(len(cpy))
	return id
}

// Lookup возвращает строку по ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// Len возвращает количество строк, включая NoStringID.
func (i *Interner) Len() int {
	return len(i.byID)
}

// MemoryUsage оценивает занятые таблицей байты.
func (i *Interner) MemoryUsage() uint64 {
	per := uint64(unsafe.Sizeof("")) + uint64(unsafe.Sizeof(StringID(0)))
	return i.bytes + uint64(cap(i.byID))*uint64(unsafe.Sizeof("")) + uint64(len(i.index))*per
}
