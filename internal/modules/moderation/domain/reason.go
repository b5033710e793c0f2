package domain

import "strings"

// KickReasons are used when a kick is issued without a reason.
var KickReasons = []string{
	"The atmosphere was too heavy.",
	"Failed the vibe check.",
	"Gravity reversed!",
	"To infinity and beyond!",
	"Begone, thot!",
	"Sent to the shadow realm.",
}

// KickReason returns the trimmed reason, or one of KickReasons chosen by pick when it is blank.
// pick receives the number of candidates and returns an index in [0, n).
func KickReason(reason string, pick func(n int) int) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return reason
	}
	return KickReasons[pick(len(KickReasons))]
}
