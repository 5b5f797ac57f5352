//go:build !windows

package logging

import "io"

// traceSink returns nil: only Windows has a debugger output channel.
func traceSink() io.Writer {
	return nil
}
