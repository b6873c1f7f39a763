package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides entity and device management with caching and thread
// safety. It wraps the repositories and adds in-memory caches for the
// per-cycle snapshot build, which reads every entity and device.
//
// The caches are populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations.
//
// All public methods are thread-safe.
type Registry struct {
	entities EntityRepository
	devices  DeviceRepository

	entityCache map[string]*Entity // Cached entities by entity id
	deviceCache map[string]*Device // Cached devices by id
	cacheMu     sync.RWMutex       // Protects both caches

	logger Logger
}

// NewRegistry creates a new registry over the given repositories.
func NewRegistry(entities EntityRepository, devices DeviceRepository) *Registry {
	return &Registry{
		entities:    entities,
		devices:     devices,
		entityCache: make(map[string]*Entity),
		deviceCache: make(map[string]*Device),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all entities and devices from the repositories.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	entities, err := r.entities.List(ctx)
	if err != nil {
		return fmt.Errorf("loading entities: %w", err)
	}

	devices, err := r.devices.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild caches with deep copies
	r.entityCache = make(map[string]*Entity, len(entities))
	for i := range entities {
		e := entities[i]
		r.entityCache[e.EntityID] = e.DeepCopy()
	}

	r.deviceCache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.deviceCache[d.ID] = d.DeepCopy()
	}

	r.logger.Info("registry cache refreshed",
		"entities", len(entities),
		"devices", len(devices),
	)
	return nil
}

// GetEntity retrieves an entity by id.
// Returns ErrEntityNotFound if the entity does not exist.
// The returned entity is a deep copy; callers can safely modify it.
func (r *Registry) GetEntity(ctx context.Context, entityID string) (*Entity, error) {
	r.cacheMu.RLock()
	cached, ok := r.entityCache[entityID]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be a new entity not yet cached)
	entity, err := r.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.entityCache[entityID] = entity.DeepCopy()
	r.cacheMu.Unlock()

	return entity, nil
}

// ListEntities retrieves all entities sorted by entity id.
// The returned entities are deep copies; callers can safely modify them.
func (r *Registry) ListEntities(ctx context.Context) ([]Entity, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	if len(r.entityCache) > 0 {
		entities := make([]Entity, 0, len(r.entityCache))
		for _, e := range r.entityCache {
			entities = append(entities, *e.DeepCopy())
		}
		sort.Slice(entities, func(i, j int) bool {
			return entities[i].EntityID < entities[j].EntityID
		})
		return entities, nil
	}

	return r.entities.List(ctx)
}

// GetDevice retrieves a device by id.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.deviceCache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	device, err := r.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.deviceCache[id] = device.DeepCopy()
	r.cacheMu.Unlock()

	return device, nil
}

// ListDevices retrieves all devices sorted by name.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	if len(r.deviceCache) > 0 {
		devices := make([]Device, 0, len(r.deviceCache))
		for _, d := range r.deviceCache {
			devices = append(devices, *d.DeepCopy())
		}
		sort.Slice(devices, func(i, j int) bool {
			if devices[i].Name != devices[j].Name {
				return devices[i].Name < devices[j].Name
			}
			return devices[i].ID < devices[j].ID
		})
		return devices, nil
	}

	return r.devices.List(ctx)
}

// CreateEntity creates a new entity.
func (r *Registry) CreateEntity(ctx context.Context, entity *Entity) error {
	if err := r.entities.Create(ctx, entity); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.entityCache[entity.EntityID] = entity.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("entity created", "entity_id", entity.EntityID)
	return nil
}

// UpdateEntity updates an existing entity.
func (r *Registry) UpdateEntity(ctx context.Context, entity *Entity) error {
	if err := r.entities.Update(ctx, entity); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.entityCache[entity.EntityID] = entity.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("entity updated", "entity_id", entity.EntityID)
	return nil
}

// CreateDevice creates a new device.
func (r *Registry) CreateDevice(ctx context.Context, device *Device) error {
	if err := r.devices.Create(ctx, device); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.deviceCache[device.ID] = device.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", device.ID, "name", device.Name)
	return nil
}

// UpdateDevice updates an existing device.
func (r *Registry) UpdateDevice(ctx context.Context, device *Device) error {
	if err := r.devices.Update(ctx, device); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.deviceCache[device.ID] = device.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device updated", "id", device.ID, "name", device.Name)
	return nil
}

// RemovalResult reports what a RemoveItems call actually deleted.
type RemovalResult struct {
	EntitiesRemoved int `json:"entities_removed"`
	DevicesRemoved  int `json:"devices_removed"`
}

// RemoveItems deletes the given entities and devices from the registry.
// Removal is idempotent: ids that do not exist are skipped without error.
// Removing a device does not cascade to its entities; they remain and
// fall through to standalone classification on the next cycle.
func (r *Registry) RemoveItems(ctx context.Context, entityIDs, deviceIDs []string) (RemovalResult, error) {
	var result RemovalResult

	for _, id := range entityIDs {
		err := r.entities.Delete(ctx, id)
		if errors.Is(err, ErrEntityNotFound) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("removing entity %q: %w", id, err)
		}

		r.cacheMu.Lock()
		delete(r.entityCache, id)
		r.cacheMu.Unlock()
		result.EntitiesRemoved++
	}

	for _, id := range deviceIDs {
		err := r.devices.Delete(ctx, id)
		if errors.Is(err, ErrDeviceNotFound) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("removing device %q: %w", id, err)
		}

		r.cacheMu.Lock()
		delete(r.deviceCache, id)
		r.cacheMu.Unlock()
		result.DevicesRemoved++
	}

	if result.EntitiesRemoved > 0 || result.DevicesRemoved > 0 {
		r.logger.Info("registry items removed",
			"entities", result.EntitiesRemoved,
			"devices", result.DevicesRemoved,
		)
	}
	return result, nil
}

// EntityCount returns the number of cached entities.
func (r *Registry) EntityCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.entityCache)
}

// DeviceCount returns the number of cached devices.
func (r *Registry) DeviceCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.deviceCache)
}

// metaView returns snapshot-ready metadata maps built from the caches.
func (r *Registry) metaView() (map[string]report.EntityMeta, map[string]report.DeviceMeta) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	entities := make(map[string]report.EntityMeta, len(r.entityCache))
	for id, e := range r.entityCache {
		entities[id] = e.Meta()
	}

	devices := make(map[string]report.DeviceMeta, len(r.deviceCache))
	for id, d := range r.deviceCache {
		devices[id] = d.Meta()
	}

	return entities, devices
}

// SnapshotBuilder combines registry metadata with live entity state into
// the immutable snapshot the report engine evaluates.
type SnapshotBuilder struct {
	registry *Registry
	states   *StateStore
}

// NewSnapshotBuilder creates a snapshot builder over the registry and
// state store.
func NewSnapshotBuilder(registry *Registry, states *StateStore) *SnapshotBuilder {
	return &SnapshotBuilder{registry: registry, states: states}
}

// BuildSnapshot builds a point-in-time snapshot at the given evaluation
// timestamp. The snapshot owns its data; later registry or state changes
// do not affect it.
func (b *SnapshotBuilder) BuildSnapshot(now time.Time) *report.Snapshot {
	entities, devices := b.registry.metaView()
	return report.NewSnapshot(now, b.states.All(), entities, devices)
}
