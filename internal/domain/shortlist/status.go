// Package shortlist holds the ranked, capacity-bounded candidate list kept
// per job and the status lifecycle of its entries.
//
// Status graph:
//
//	shortlisted ──► contacted | interviewed | hired | rejected
//
// Any of the four destination states may be set from any state. hired and
// rejected are treated as terminal by callers but not enforced here.
package shortlist

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusShortlisted Status = "shortlisted"
	StatusContacted   Status = "contacted"
	StatusInterviewed Status = "interviewed"
	StatusHired       Status = "hired"
	StatusRejected    Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusShortlisted, StatusContacted, StatusInterviewed, StatusHired, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsSettable reports whether st may be the target of SetStatus.
func IsSettable(st Status) bool {
	switch st {
	case StatusContacted, StatusInterviewed, StatusHired, StatusRejected:
		return true
	}
	return false
}

func IsTerminal(st Status) bool { return st == StatusHired || st == StatusRejected }

func IsHired(st Status) bool { return st == StatusHired }

// IsAdvanced reports whether an entry has moved past the initial state.
func IsAdvanced(st Status) bool { return st != "" && st != StatusShortlisted }
