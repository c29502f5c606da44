package port

import (
	"fmt"

	"github.com/awantoch/portflow/constants"
)

// Option is one selectable value in a parameter menu.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProviderOptions lists the LLM providers Port accepts.
var ProviderOptions = []Option{
	{Name: "Anthropic", Value: "anthropic"},
	{Name: "Azure OpenAI", Value: "azure-openai"},
	{Name: "Bedrock", Value: "bedrock"},
	{Name: "OpenAI", Value: "openai"},
	{Name: "Port", Value: "port"},
}

// ModelOptions lists the models offered for agent and general invocations.
var ModelOptions = []Option{
	{Name: "GPT-5", Value: "gpt-5"},
	{Name: "Claude Sonnet 4", Value: "claude-sonnet-4-20250514"},
	{Name: "Claude Haiku 4.5", Value: "claude-haiku-4-5-20251001"},
}

// ExecutionModeOptions lists general-invoke execution modes.
var ExecutionModeOptions = []Option{
	{Name: "Automatic", Value: "Automatic"},
	{Name: "Approval Required", Value: "Approval Required"},
}

// Profile is one configuration of the shared core. The two profiles differ
// only in parameter defaults, parameter naming and header handling.
type Profile struct {
	Name           string
	CredentialName string
	// InvocationIDParams are tried in order when reading getInvocation's identifier.
	InvocationIDParams []string
	// AlwaysSendPrompt sends invokeAgent's prompt even when empty.
	AlwaysSendPrompt bool
	// AdditionalHeaders allows configured extra headers on API calls.
	AdditionalHeaders bool
	// Defaults per operation, applied to absent parameters only.
	Defaults map[string]Params
}

// PortAPIAIProfile mirrors the "Port API AI" node.
var PortAPIAIProfile = &Profile{
	Name:               constants.ProfilePortAPIAI,
	CredentialName:     "portApi",
	InvocationIDParams: []string{constants.ParamInvocationIdentifier, constants.ParamInvocationID},
	AlwaysSendPrompt:   true,
	Defaults: map[string]Params{
		constants.OpInvokeAgent: {
			constants.ParamContext:  "{}",
			constants.ParamLabels:   "{}",
			constants.ParamProvider: "port",
			constants.ParamModel:    "gpt-5",
		},
		constants.OpGeneralInvoke: {
			constants.ParamTools:           constants.DefaultToolsPattern,
			constants.ParamGeneralLabels:   "{}",
			constants.ParamGeneralProvider: "openai",
			constants.ParamGeneralModel:    "gpt-5",
			constants.ParamExecutionMode:   "Approval Required",
		},
	},
}

// PortIOProfile mirrors the "Port.io" node, which also forwards additional headers.
var PortIOProfile = &Profile{
	Name:               constants.ProfilePortIO,
	CredentialName:     "portIoApi",
	InvocationIDParams: []string{constants.ParamInvocationID, constants.ParamInvocationIdentifier},
	AdditionalHeaders:  true,
	Defaults: map[string]Params{
		constants.OpInvokeAgent: {
			constants.ParamContext:  "{}",
			constants.ParamLabels:   "{}",
			constants.ParamProvider: "port",
		},
		constants.OpGeneralInvoke: {
			constants.ParamGeneralLabels:   "{}",
			constants.ParamGeneralProvider: "openai",
			constants.ParamExecutionMode:   "Automatic",
		},
	},
}

// LookupProfile resolves a profile by name; "" selects the default profile.
func LookupProfile(name string) (*Profile, error) {
	switch name {
	case "", constants.ProfilePortAPIAI:
		return PortAPIAIProfile, nil
	case constants.ProfilePortIO:
		return PortIOProfile, nil
	default:
		return nil, fmt.Errorf("unknown profile %q (expected %s or %s)", name, constants.ProfilePortAPIAI, constants.ProfilePortIO)
	}
}

// DefaultsFor returns the defaults for operation, never nil.
func (p *Profile) DefaultsFor(operation string) Params {
	if d, ok := p.Defaults[operation]; ok {
		return d
	}
	return Params{}
}
