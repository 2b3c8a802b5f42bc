package hermes

import "strings"

const (
	SubjectTriageRequest = "swarm.triage.request"

	StreamName   = "TRIAGE_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// SubjectRanked is where the result of a ranking run is published. For runs
// started over NATS the id is the caller's request id.
func SubjectRanked(id string) string { return "swarm.triage." + id + ".ranked" }

// SubjectRejected carries the validation failures of a run, when there are any.
func SubjectRejected(id string) string { return "swarm.triage." + id + ".rejected" }

// ValidToken reports whether s can be used as a single subject token.
func ValidToken(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, ".*> \t\r\n")
}
