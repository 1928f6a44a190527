package notification

import (
	"context"
	"time"

	"github.com/calmerhq/calmer/internal/domain/user"
)

// CandidateQuery is the explicit predicate set the selection snapshot is
// built from. Every filter the storage layer applies is named here so the
// query stays testable instead of being composed inline at the call site.
type CandidateQuery struct {
	Windows     []Window
	Provider    user.IdentityProvider
	QuietWindow time.Duration
}

// CandidateSource produces the selection snapshot for one invocation.
// An empty result is a normal outcome, not an error.
type CandidateSource interface {
	SelectCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)
}

// Sender is the delivery transport. One call covers one batch; callers must
// keep batches at or under the transport's token limit.
type Sender interface {
	Send(ctx context.Context, recipients []Recipient, title, body string) error
}

type Clock interface {
	Now() time.Time
}
