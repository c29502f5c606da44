package adapter

import (
	"context"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/port"
)

// GeneralInvokeAdapter runs a general-purpose AI interaction with an explicit tool list.
type GeneralInvokeAdapter struct{}

func (a *GeneralInvokeAdapter) ID() string {
	return constants.OpGeneralInvoke
}

func (a *GeneralInvokeAdapter) Describe() Description {
	return Description{
		ID:          constants.OpGeneralInvoke,
		Name:        "General-Purpose AI Interactions",
		Description: "POST /v1/ai/invoke",
		Action:      "Invoke a General-Purpose AI Interaction",
		Required:    []string{constants.ParamUserPrompt, constants.ParamTools},
	}
}

// Execute validates tools before anything is sent.
func (a *GeneralInvokeAdapter) Execute(ctx context.Context, sess *Session, params port.Params) (map[string]any, error) {
	req, err := port.BuildGeneralInvoke(sess.withDefaults(constants.OpGeneralInvoke, params))
	if err != nil {
		return nil, err
	}
	res, err := sess.Client.GeneralInvoke(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}
	return res.Map(), nil
}
