//go:build !windows && !darwin && !netbsd
// +build !windows,!darwin,!netbsd

package securefile

import "syscall"

func statTimes(st *syscall.Stat_t) (atim, ctim syscall.Timespec) {
	return st.Atim, st.Ctim
}
