package wizard

import (
	"context"
	"sync"

	"rental-admin-console/internal/formstore"

	"go.uber.org/zap"
)

// Registry pairs each live form session with its controller. The step is
// not persisted: a rehydrated session starts again at Step1.
type Registry struct {
	manager  *formstore.Manager
	onChange func(View)
	logger   *zap.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(manager *formstore.Manager, onChange func(View), logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		manager:     manager,
		onChange:    onChange,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

func (r *Registry) track(s *formstore.Store) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[s.SessionID()]; ok {
		return c
	}
	c := NewController(s, r.onChange, r.logger)
	r.controllers[s.SessionID()] = c
	return c
}

func (r *Registry) Create(ctx context.Context) (*Controller, error) {
	s, err := r.manager.Create(ctx)
	if err != nil {
		return nil, err
	}
	return r.track(s), nil
}

// CreateForVehicle opens a wizard that edits an existing vehicle.
func (r *Registry) CreateForVehicle(ctx context.Context, vehicleID string) (*Controller, error) {
	s, err := r.manager.CreateForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return r.track(s), nil
}

// Open returns the controller for sessionID, rehydrating the session if needed.
func (r *Registry) Open(ctx context.Context, sessionID string) (*Controller, error) {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	r.mu.Unlock()
	if ok {
		return c, nil
	}
	s, err := r.manager.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return r.track(s), nil
}

// Close tears the wizard down and forgets its session.
func (r *Registry) Close(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()
	if ok {
		c.close()
	}
	return r.manager.Close(ctx, sessionID)
}
