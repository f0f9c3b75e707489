package tools

import (
	"fmt"
	"strings"
)

// dangerousPatterns is the deny-list applied to every shell command before a
// process is spawned. Matching is case-insensitive substring search; a hit
// blocks the command outright.
var dangerousPatterns = []string{
	"rm -rf",
	"format",
	"shutdown",
	"reboot",
	"dd if=",
	"mkfs",
	":(){ :|:& };:",
	"fork()",
	"> /dev/sda",
}

// CheckCommand returns ErrDangerousCommand when the command string contains
// a deny-listed pattern. The matched pattern is included in the error text
// so the model learns what tripped the block.
func CheckCommand(command string) error {
	lowered := strings.ToLower(command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return fmt.Errorf("%w: %s", ErrDangerousCommand, pattern)
		}
	}
	return nil
}
