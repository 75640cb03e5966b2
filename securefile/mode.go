package securefile

import (
	"fmt"
	"os"
)

// openModeFlags maps the recognized fopen-style mode tokens onto os package
// open flags. Anything outside this table is rejected before any OS call.
var openModeFlags = map[string]int{
	"r":   os.O_RDONLY,
	"rb":  os.O_RDONLY,
	"r+":  os.O_RDWR,
	"rb+": os.O_RDWR,
	"r+b": os.O_RDWR,

	"w":   os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	"wb":  os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	"w+":  os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	"wb+": os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	"w+b": os.O_RDWR | os.O_CREATE | os.O_TRUNC,

	"wx":   os.O_WRONLY | os.O_CREATE | os.O_TRUNC | os.O_EXCL,
	"wbx":  os.O_WRONLY | os.O_CREATE | os.O_TRUNC | os.O_EXCL,
	"w+x":  os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_EXCL,
	"wb+x": os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_EXCL,
	"w+bx": os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_EXCL,

	"a":   os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	"ab":  os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	"a+":  os.O_RDWR | os.O_CREATE | os.O_APPEND,
	"ab+": os.O_RDWR | os.O_CREATE | os.O_APPEND,
	"a+b": os.O_RDWR | os.O_CREATE | os.O_APPEND,
}

func parseOpenMode(mode string) (int, error) {
	flags, ok := openModeFlags[mode]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadMode, mode)
	}
	return flags, nil
}
