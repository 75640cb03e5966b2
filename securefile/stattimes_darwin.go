//go:build darwin || netbsd
// +build darwin netbsd

package securefile

import "syscall"

func statTimes(st *syscall.Stat_t) (atim, ctim syscall.Timespec) {
	return st.Atimespec, st.Ctimespec
}
