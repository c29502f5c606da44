package adapter

import (
	"context"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/port"
)

// GetInvocationAdapter fetches the stored result of an earlier invocation.
type GetInvocationAdapter struct{}

func (a *GetInvocationAdapter) ID() string {
	return constants.OpGetInvocation
}

func (a *GetInvocationAdapter) Describe() Description {
	return Description{
		ID:          constants.OpGetInvocation,
		Name:        "Get an Invocation's Result",
		Description: "GET /v1/ai/invoke/:invocation_identifier",
		Action:      "Get The Result of an AI Interaction Invocation",
		Required:    []string{constants.ParamInvocationIdentifier},
	}
}

func (a *GetInvocationAdapter) Execute(ctx context.Context, sess *Session, params port.Params) (map[string]any, error) {
	req, err := port.BuildGetInvocation(sess.withDefaults(constants.OpGetInvocation, params), sess.profile())
	if err != nil {
		return nil, err
	}
	return sess.Client.GetInvocation(ctx, sess.Token, req)
}
