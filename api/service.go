package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/awantoch/portflow/adapter"
	"github.com/awantoch/portflow/blob"
	"github.com/awantoch/portflow/config"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/engine"
	"github.com/awantoch/portflow/event"
	"github.com/awantoch/portflow/model"
	"github.com/awantoch/portflow/port"
	"github.com/awantoch/portflow/secrets"
	"github.com/awantoch/portflow/storage"
	"github.com/awantoch/portflow/telemetry"
	"github.com/awantoch/portflow/templater"
	"github.com/google/uuid"
)

// InvocationService is the surface shared by the CLI, HTTP and MCP frontends.
type InvocationService interface {
	Execute(ctx context.Context, batch *model.Batch) (*engine.Result, error)
	TestCredentials(ctx context.Context) error
	ListInvocations(ctx context.Context, filter storage.ListFilter) ([]*model.Invocation, error)
	GetInvocation(ctx context.Context, id uuid.UUID) (*model.Invocation, error)
	InvocationOutput(ctx context.Context, id uuid.UUID) (map[string]any, error)
	DeleteInvocation(ctx context.Context, id uuid.UUID) error
	Operations() []adapter.Description
	Options() Options
}

// Options lists the selectable parameter values and profiles.
type Options struct {
	Providers      []port.Option `json:"providers"`
	Models         []port.Option `json:"models"`
	ExecutionModes []port.Option `json:"executionModes"`
	Profiles       []string      `json:"profiles"`
}

// Service is the default InvocationService.
type Service struct {
	cfg     *config.Config
	client  *port.Client
	engine  *engine.Engine
	secrets secrets.SecretsProvider
	profile *port.Profile
}

var _ InvocationService = (*Service)(nil)

// NewService builds storage, event bus, blob store, secrets provider, Port
// client and engine from cfg.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := port.LookupProfile(cfg.Port.Profile)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	bus, err := event.NewEventBusFromConfig(&cfg.Event)
	if err != nil {
		store.Close()
		return nil, err
	}
	blobStore, err := blob.NewBlobStore(ctx, cfg.Blob)
	if err != nil {
		store.Close()
		bus.Close()
		return nil, err
	}
	sp, err := secrets.NewSecretsProvider(ctx, &cfg.Secrets)
	if err != nil {
		store.Close()
		bus.Close()
		return nil, err
	}

	opts := []port.ClientOption{
		port.WithTransport(port.NewHTTPTransport(telemetry.NewHTTPClient())),
		port.WithObserver(telemetry.ObserveUpstream),
	}
	if profile.AdditionalHeaders {
		opts = append(opts, port.WithHeaders(cfg.Port.Headers))
	}
	client := port.NewClient(cfg.Port.BaseURL, opts...)

	eng := engine.NewEngine(adapter.NewDefaultRegistry(), templater.NewTemplater(), bus, blobStore, store)
	eng.ContinueOnFail = cfg.Engine.ContinueOnFail
	return NewServiceWith(cfg, client, eng, sp), nil
}

// NewServiceWith assembles a Service from prebuilt parts.
func NewServiceWith(cfg *config.Config, client *port.Client, eng *engine.Engine, sp secrets.SecretsProvider) *Service {
	profile, err := port.LookupProfile(cfg.Port.Profile)
	if err != nil {
		profile = port.PortAPIAIProfile
	}
	return &Service{cfg: cfg, client: client, engine: eng, secrets: sp, profile: profile}
}

// Execute runs batch. A batch without a profile uses the configured one.
func (s *Service) Execute(ctx context.Context, batch *model.Batch) (*engine.Result, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	run := &engine.Run{Client: s.client, Credentials: creds, Batch: batch}
	if batch != nil && batch.Profile == "" {
		run.Profile = s.profile
	}
	return s.engine.Execute(ctx, run)
}

// TestCredentials performs the token exchange only.
func (s *Service) TestCredentials(ctx context.Context) error {
	creds, err := s.credentials(ctx)
	if err != nil {
		return err
	}
	_, err = s.client.AccessToken(ctx, creds.ClientID, creds.ClientSecret)
	return err
}

func (s *Service) ListInvocations(ctx context.Context, filter storage.ListFilter) ([]*model.Invocation, error) {
	if s.engine.Storage == nil {
		return []*model.Invocation{}, nil
	}
	return s.engine.Storage.ListInvocations(ctx, filter)
}

func (s *Service) GetInvocation(ctx context.Context, id uuid.UUID) (*model.Invocation, error) {
	if s.engine.Storage == nil {
		return nil, storage.ErrNotFound
	}
	return s.engine.Storage.GetInvocation(ctx, id)
}

// InvocationOutput returns the output of invocation id, read back from the
// archive when it was archived and from the history record otherwise.
func (s *Service) InvocationOutput(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	inv, err := s.GetInvocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.OutputURL == "" || s.engine.BlobStore == nil {
		return inv.Output, nil
	}
	data, err := s.engine.BlobStore.Get(ctx, inv.OutputURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived output %s: %w", inv.OutputURL, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode archived output %s: %w", inv.OutputURL, err)
	}
	return out, nil
}

func (s *Service) DeleteInvocation(ctx context.Context, id uuid.UUID) error {
	if s.engine.Storage == nil {
		return storage.ErrNotFound
	}
	return s.engine.Storage.DeleteInvocation(ctx, id)
}

// WatchEvents passes every completed and failed invocation event to handler
// until ctx is done.
func (s *Service) WatchEvents(ctx context.Context, handler func(topic string, evt *event.InvocationEvent)) error {
	if s.engine.EventBus == nil {
		return nil
	}
	for _, topic := range []string{constants.TopicInvocationCompleted, constants.TopicInvocationFailed} {
		if err := s.engine.EventBus.Subscribe(ctx, topic, func(evt *event.InvocationEvent) {
			handler(topic, evt)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Operations describes the registered operations in menu order.
func (s *Service) Operations() []adapter.Description {
	all := s.engine.Adapters.All()
	out := make([]adapter.Description, 0, len(all))
	for _, a := range all {
		out = append(out, a.Describe())
	}
	return out
}

func (s *Service) Options() Options {
	return DefaultOptions()
}

// DefaultOptions lists the built-in enumerations and profile names.
func DefaultOptions() Options {
	return Options{
		Providers:      port.ProviderOptions,
		Models:         port.ModelOptions,
		ExecutionModes: port.ExecutionModeOptions,
		Profiles:       []string{constants.ProfilePortAPIAI, constants.ProfilePortIO},
	}
}

// Close releases the engine's bus and storage and the secrets provider.
func (s *Service) Close() error {
	var errs []error
	errs = append(errs, s.engine.Close())
	if s.secrets != nil {
		errs = append(errs, s.secrets.Close())
	}
	return errors.Join(errs...)
}

// credentials resolves secret references in a copy of the configured credentials.
func (s *Service) credentials(ctx context.Context) (engine.Credentials, error) {
	pc := s.cfg.Port
	if err := secrets.ResolveCredentials(ctx, s.secrets, &pc); err != nil {
		return engine.Credentials{}, fmt.Errorf("failed to resolve credentials: %w", err)
	}
	resolved := config.Config{Port: pc}
	if err := resolved.ValidateCredentials(); err != nil {
		return engine.Credentials{}, err
	}
	return engine.Credentials{ClientID: pc.ClientID, ClientSecret: pc.ClientSecret}, nil
}
