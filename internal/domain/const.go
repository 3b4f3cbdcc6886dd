package domain

// Domain is the closed set of creative-work categories the catalog knows.
// A work never crosses domains: a movie can never merge with a game.
type Domain string

const (
	DomainMovie    Domain = "movie"
	DomainTV       Domain = "tv"
	DomainGame     Domain = "game"
	DomainWebtoon  Domain = "webtoon"
	DomainWebnovel Domain = "webnovel"
)

// Domains lists every valid domain tag.
var Domains = []Domain{DomainMovie, DomainTV, DomainGame, DomainWebtoon, DomainWebnovel}

func ParseDomain(s string) (Domain, bool) {
	d := Domain(s)
	switch d {
	case DomainMovie, DomainTV, DomainGame, DomainWebtoon, DomainWebnovel:
		return d, true
	default:
		return "", false
	}
}

// AttemptStatus is the terminal state of one orchestrator attempt.
type AttemptStatus string

const (
	AttemptSuccess          AttemptStatus = "SUCCESS"
	AttemptSuccessDuplicate AttemptStatus = "SUCCESS_DUPLICATE"
	AttemptFailed           AttemptStatus = "FAILED"
)

// Run-status values a serialized work's status token coerces to.
const (
	SerialStatusOngoing   = "ONGOING"
	SerialStatusCompleted = "COMPLETED"
)
