//go:build !windows

package format

// enableVirtualTerminal is a no-op outside Windows: Unix terminals speak
// ANSI natively.
func enableVirtualTerminal() bool {
	return true
}
