package rules

import (
	"regexp"
)

// matches invite links in the forms the platform resolves: scheme and "www."
// optional, either the short or the long host
var inviteRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:discord\.gg|discord\.com/invite)/[A-Za-z0-9\-]+`)

func ContainsInviteLink(text string) bool {
	return inviteRegex.MatchString(text)
}
