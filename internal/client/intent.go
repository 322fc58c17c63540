package client

import (
	"regexp"
	"strings"
)

var intentIDRegex = regexp.MustCompile(`^pi_[A-Za-z0-9]{16}`)

// NormalizeIntentID reduces a client secret or a raw intent id to the
// canonical "pi_" + 16 alphanumerics form. Anything after that (the
// "_secret..." part of a client secret included) is dropped.
func NormalizeIntentID(raw string) (string, bool) {
	if i := strings.Index(raw, "_secret"); i >= 0 {
		raw = raw[:i]
	}
	id := intentIDRegex.FindString(raw)
	return id, id != ""
}
