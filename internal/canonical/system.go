package canonical

// Implementation headers of common C libraries and the public header that
// declares their contents. Keys are path suffixes.
var systemSuffixes = map[string]string{
	"bits/byteswap.h":                "<byteswap.h>",
	"bits/confname.h":                "<unistd.h>",
	"bits/dirent.h":                  "<dirent.h>",
	"bits/endian.h":                  "<endian.h>",
	"bits/errno.h":                   "<errno.h>",
	"bits/fcntl.h":                   "<fcntl.h>",
	"bits/in.h":                      "<netinet/in.h>",
	"bits/ioctls.h":                  "<sys/ioctl.h>",
	"bits/local_lim.h":               "<limits.h>",
	"bits/locale.h":                  "<locale.h>",
	"bits/mathcalls.h":               "<math.h>",
	"bits/mman.h":                    "<sys/mman.h>",
	"bits/posix1_lim.h":              "<limits.h>",
	"bits/pthreadtypes.h":            "<pthread.h>",
	"bits/resource.h":                "<sys/resource.h>",
	"bits/select.h":                  "<sys/select.h>",
	"bits/setjmp.h":                  "<setjmp.h>",
	"bits/sigaction.h":               "<signal.h>",
	"bits/signum.h":                  "<signal.h>",
	"bits/socket.h":                  "<sys/socket.h>",
	"bits/stat.h":                    "<sys/stat.h>",
	"bits/stdint-intn.h":             "<stdint.h>",
	"bits/stdint-uintn.h":            "<stdint.h>",
	"bits/stdio.h":                   "<stdio.h>",
	"bits/stdlib-float.h":            "<stdlib.h>",
	"bits/string_fortified.h":        "<string.h>",
	"bits/termios.h":                 "<termios.h>",
	"bits/time.h":                    "<time.h>",
	"bits/types/FILE.h":              "<stdio.h>",
	"bits/types/__FILE.h":            "<stdio.h>",
	"bits/types/clock_t.h":           "<time.h>",
	"bits/types/locale_t.h":          "<locale.h>",
	"bits/types/sigset_t.h":          "<signal.h>",
	"bits/types/struct_FILE.h":       "<stdio.h>",
	"bits/types/struct_timespec.h":   "<time.h>",
	"bits/types/struct_tm.h":         "<time.h>",
	"bits/types/time_t.h":            "<time.h>",
	"bits/uio.h":                     "<sys/uio.h>",
	"bits/waitstatus.h":              "<sys/wait.h>",
	"bits/wchar.h":                   "<wchar.h>",
	"asm-generic/errno-base.h":       "<errno.h>",
	"asm-generic/errno.h":            "<errno.h>",
	"include/stdarg.h":               "<stdarg.h>",
	"include/stdbool.h":              "<stdbool.h>",
	"include/stddef.h":               "<stddef.h>",
	"sys/cdefs.h":                    "<sys/types.h>",
	"gnu/stubs.h":                    "<features.h>",
	"linux/limits.h":                 "<limits.h>",
	"bits/types/struct_sigstack.h":   "<signal.h>",
	"bits/types/struct_timeval.h":    "<sys/time.h>",
	"bits/types/mbstate_t.h":         "<wchar.h>",
	"bits/types/__mbstate_t.h":       "<wchar.h>",
	"bits/types/struct_itimerspec.h": "<time.h>",
}

// Symbols declared by the C standard library, by public header.
var systemSymbols = map[string]string{
	"NULL":      "<stddef.h>",
	"size_t":    "<stddef.h>",
	"ptrdiff_t": "<stddef.h>",
	"offsetof":  "<stddef.h>",
	"FILE":      "<stdio.h>",
	"EOF":       "<stdio.h>",
	"printf":    "<stdio.h>",
	"fprintf":   "<stdio.h>",
	"snprintf":  "<stdio.h>",
	"fopen":     "<stdio.h>",
	"fclose":    "<stdio.h>",
	"puts":      "<stdio.h>",
	"malloc":    "<stdlib.h>",
	"calloc":    "<stdlib.h>",
	"realloc":   "<stdlib.h>",
	"free":      "<stdlib.h>",
	"exit":      "<stdlib.h>",
	"abort":     "<stdlib.h>",
	"atoi":      "<stdlib.h>",
	"qsort":     "<stdlib.h>",
	"strlen":    "<string.h>",
	"strcmp":    "<string.h>",
	"strncmp":   "<string.h>",
	"strcpy":    "<string.h>",
	"memcpy":    "<string.h>",
	"memmove":   "<string.h>",
	"memset":    "<string.h>",
	"memcmp":    "<string.h>",
	"int8_t":    "<stdint.h>",
	"int16_t":   "<stdint.h>",
	"int32_t":   "<stdint.h>",
	"int64_t":   "<stdint.h>",
	"uint8_t":   "<stdint.h>",
	"uint16_t":  "<stdint.h>",
	"uint32_t":  "<stdint.h>",
	"uint64_t":  "<stdint.h>",
	"intptr_t":  "<stdint.h>",
	"uintptr_t": "<stdint.h>",
	"bool":      "<stdbool.h>",
	"true":      "<stdbool.h>",
	"false":     "<stdbool.h>",
	"errno":     "<errno.h>",
	"assert":    "<assert.h>",
	"va_list":   "<stdarg.h>",
	"va_start":  "<stdarg.h>",
	"va_end":    "<stdarg.h>",
	"time_t":    "<time.h>",
	"time":      "<time.h>",
	"clock":     "<time.h>",
	"sqrt":      "<math.h>",
	"pow":       "<math.h>",
	"fabs":      "<math.h>",
	"isdigit":   "<ctype.h>",
	"isalpha":   "<ctype.h>",
	"isspace":   "<ctype.h>",
	"toupper":   "<ctype.h>",
	"tolower":   "<ctype.h>",
	"CHAR_BIT":  "<limits.h>",
	"INT_MAX":   "<limits.h>",
	"INT_MIN":   "<limits.h>",
}
