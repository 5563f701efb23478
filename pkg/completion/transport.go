package completion

import (
	"context"
)

// Transport is one mechanism for reaching the completion provider.
type Transport interface {
	Name() string
	Complete(ctx context.Context, req *Request) (string, error)
}

// attemptResult is the outcome of running a request through a transport chain.
type attemptResult struct {
	Text     string
	OK       bool
	Failures []*TransportError
}

// FirstFailure returns the failure of the first transport that was tried.
func (r attemptResult) FirstFailure() *TransportError {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0]
}

// runChain tries each transport strictly in order and stops at the first
// success. Each attempt only starts after the previous one has failed.
func runChain(ctx context.Context, req *Request, transports []Transport, onFailure func(*TransportError)) attemptResult {
	var res attemptResult
	for _, transport := range transports {
		text, err := transport.Complete(ctx, req)
		if err == nil {
			res.Text = text
			res.OK = true
			return res
		}
		failure := newTransportError(transport.Name(), err)
		res.Failures = append(res.Failures, failure)
		if onFailure != nil {
			onFailure(failure)
		}
	}
	return res
}
