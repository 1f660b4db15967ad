package infrastructure

import "strings"

// shellMeta holds characters that a POSIX shell would interpret
const shellMeta = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// QuoteArg quotes one argument so the logged command line can be pasted into a shell.
// exec.Command never needs this; it is for process logs only.
func QuoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, shellMeta) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

// FormatCommand renders binary and args as a single shell-safe line
func FormatCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArg(binary))
	for _, arg := range args {
		parts = append(parts, QuoteArg(arg))
	}
	return strings.Join(parts, " ")
}
