package worker

// Request categories. Every planned request carries exactly one; the four
// per-worker category counts always sum to the number of requests issued.
const (
	CategoryExecuted   = "executed"
	CategoryBackoff    = "backoff"
	CategorySuppressed = "suppressed"
	CategoryFallback   = "fallback"
)

// Request kinds route response handling. The kind is recorded at plan time;
// the response handler never re-derives it from the response itself.
type Kind int

const (
	// KindNoop is the benign fallback request. Its response is ignored.
	KindNoop Kind = iota
	// KindUpdate is a normal optimistic update outside any retry session.
	KindUpdate
	// KindRefresh is the GET that resynchronizes state after a conflict.
	KindRefresh
	// KindRetryUpdate is an update resent with a refreshed version.
	KindRetryUpdate
)

func (k Kind) String() string {
	switch k {
	case KindNoop:
		return "noop"
	case KindUpdate:
		return "update"
	case KindRefresh:
		return "refresh"
	case KindRetryUpdate:
		return "retry_update"
	default:
		return "unknown"
	}
}

// Request is one planned outbound request.
type Request struct {
	Category string
	Kind     Kind
	Method   string
	Path     string
	Body     []byte

	// TargetIndex is the 1-based pool index the request mutates, 0 for noops.
	TargetIndex int
	// PendingStatus is the status a status-transition update will apply.
	PendingStatus string
}

// Response is what the machine needs back from the transport. A transport
// failure is represented as StatusCode 0.
type Response struct {
	StatusCode int
	Body       []byte
}

// FallbackPath is the cheap idempotent endpoint used for noop cycles.
const FallbackPath = "/healthz"

func noopRequest() Request {
	return Request{Kind: KindNoop, Method: "GET", Path: FallbackPath}
}
