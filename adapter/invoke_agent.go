package adapter

import (
	"context"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/port"
)

// InvokeAgentAdapter invokes one specific Port agent and decodes its event stream.
type InvokeAgentAdapter struct{}

func (a *InvokeAgentAdapter) ID() string {
	return constants.OpInvokeAgent
}

func (a *InvokeAgentAdapter) Describe() Description {
	return Description{
		ID:          constants.OpInvokeAgent,
		Name:        "Invoke a Specific Agent",
		Description: "POST /v1/agent/:agentIdentifier/invoke",
		Action:      "Invoke an AI Interaction with a Specific Agent",
		Required:    []string{constants.ParamAgentIdentifier, constants.ParamPrompt},
	}
}

func (a *InvokeAgentAdapter) Execute(ctx context.Context, sess *Session, params port.Params) (map[string]any, error) {
	req, err := port.BuildInvokeAgent(sess.withDefaults(constants.OpInvokeAgent, params), sess.profile())
	if err != nil {
		return nil, err
	}
	res, err := sess.Client.InvokeAgent(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}
	return res.Map(), nil
}
