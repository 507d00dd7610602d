//go:build unix

package wsurf

import "golang.org/x/sys/unix"

// closeFD closes PRIME descriptors returned by QueryImage.
var closeFD = unix.Close
