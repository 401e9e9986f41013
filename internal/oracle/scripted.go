package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/rubric"
)

// Reply is one scripted oracle outcome.
type Reply struct {
	Result interview.Result
	Err    error
}

// Ask scripts a continuation with question q.
func Ask(q string) Reply {
	return Reply{Result: interview.InProgress{NextQuestion: q}}
}

// Finish scripts a completion with answers a.
func Finish(a rubric.Answers) Reply {
	return Reply{Result: interview.Completed{Answers: a}}
}

// Fail scripts an error.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Scripted is a deterministic oracle that returns replies in FIFO order
// and records every request it receives.
type Scripted struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []interview.Request
}

var _ interview.Oracle = (*Scripted)(nil)

// NewScripted creates a Scripted oracle with the given replies.
func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Next returns the next scripted reply, or ErrOracleUnavailable once the
// script is exhausted.
func (s *Scripted) Next(_ context.Context, req interview.Request) (interview.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)

	if len(s.replies) == 0 {
		return nil, fmt.Errorf("%w: script exhausted", interview.ErrOracleUnavailable)
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Result, r.Err
}

// Add appends replies to the script.
func (s *Scripted) Add(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// CallCount returns the number of Next calls made.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
