package service

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

const shortCodePrefixLen = 4

// shortCode derives the human-facing code for a task: an upper-cased prefix
// taken from the project name plus a random hex discriminator. Uniqueness is
// best effort only; collisions are possible and tolerated.
func shortCode(projectName string) string {
	var b strings.Builder
	for _, r := range projectName {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() >= shortCodePrefixLen {
			break
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "TASK"
	}
	return fmt.Sprintf("%s-%04x", prefix, rand.Intn(1<<16))
}
