package validation

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	reactionRe = regexp.MustCompile(`^[a-z_]{1,32}$`)
)

func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func ValidateUsername(username string) bool {
	return usernameRe.MatchString(NormalizeUsername(username))
}

// ValidateReactionType accepts short snake_case reaction names ("like",
// "thumbs_up"). Emoji aliases resolve client-side.
func ValidateReactionType(reaction string) bool {
	return reactionRe.MatchString(reaction)
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func ValidateMessageContent(content string) bool {
	content = strings.TrimSpace(content)
	return content != "" && len(content) <= MaxMessageLength()
}
