package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// MockEntityRepository is a test implementation of EntityRepository.
type MockEntityRepository struct {
	mu       sync.Mutex
	entities map[string]*Entity
	// For testing error paths
	deleteErr error
}

func NewMockEntityRepository() *MockEntityRepository {
	return &MockEntityRepository{
		entities: make(map[string]*Entity),
	}
}

func (m *MockEntityRepository) GetByID(_ context.Context, entityID string) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entities[entityID]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, ErrEntityNotFound
}

func (m *MockEntityRepository) List(_ context.Context) ([]Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entities := make([]Entity, 0, len(m.entities))
	for _, e := range m.entities {
		entities = append(entities, *e)
	}
	return entities, nil
}

func (m *MockEntityRepository) ListByDevice(_ context.Context, deviceID string) ([]Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entities []Entity
	for _, e := range m.entities {
		if e.DeviceID != nil && *e.DeviceID == deviceID {
			entities = append(entities, *e)
		}
	}
	return entities, nil
}

func (m *MockEntityRepository) Create(_ context.Context, entity *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entities[entity.EntityID]; exists {
		return ErrEntityExists
	}

	copy := *entity
	m.entities[entity.EntityID] = &copy
	return nil
}

func (m *MockEntityRepository) Update(_ context.Context, entity *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entities[entity.EntityID]; !exists {
		return ErrEntityNotFound
	}

	copy := *entity
	m.entities[entity.EntityID] = &copy
	return nil
}

func (m *MockEntityRepository) Delete(_ context.Context, entityID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entities[entityID]; !exists {
		return ErrEntityNotFound
	}

	delete(m.entities, entityID)
	return nil
}

// addEntity adds an entity directly to the mock for test setup.
func (m *MockEntityRepository) addEntity(e *Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *e
	m.entities[e.EntityID] = &copy
}

// MockDeviceRepository is a test implementation of DeviceRepository.
type MockDeviceRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
}

func NewMockDeviceRepository() *MockDeviceRepository {
	return &MockDeviceRepository{
		devices: make(map[string]*Device),
	}
}

func (m *MockDeviceRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.devices[id]; ok {
		copy := *d
		return &copy, nil
	}
	return nil, ErrDeviceNotFound
}

func (m *MockDeviceRepository) List(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, *d)
	}
	return devices, nil
}

func (m *MockDeviceRepository) Create(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[device.ID]; exists {
		return ErrDeviceExists
	}

	copy := *device
	m.devices[device.ID] = &copy
	return nil
}

func (m *MockDeviceRepository) Update(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[device.ID]; !exists {
		return ErrDeviceNotFound
	}

	copy := *device
	m.devices[device.ID] = &copy
	return nil
}

func (m *MockDeviceRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[id]; !exists {
		return ErrDeviceNotFound
	}

	delete(m.devices, id)
	return nil
}

// addDevice adds a device directly to the mock for test setup.
func (m *MockDeviceRepository) addDevice(d *Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *d
	m.devices[d.ID] = &copy
}

func testEntity(entityID string, deviceID *string) *Entity {
	return &Entity{
		EntityID:  entityID,
		Name:      entityID,
		DeviceID:  deviceID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func testDevice(id, name string) *Device {
	return &Device{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func newTestRegistry(t *testing.T) (*Registry, *MockEntityRepository, *MockDeviceRepository) {
	t.Helper()
	entityRepo := NewMockEntityRepository()
	deviceRepo := NewMockDeviceRepository()
	return NewRegistry(entityRepo, deviceRepo), entityRepo, deviceRepo
}

func TestRegistry_RefreshCache(t *testing.T) {
	reg, entityRepo, deviceRepo := newTestRegistry(t)
	ctx := context.Background()

	devID := "dev-1"
	entityRepo.addEntity(testEntity("sensor.one", &devID))
	entityRepo.addEntity(testEntity("sensor.two", nil))
	deviceRepo.addDevice(testDevice("dev-1", "Device 1"))

	if err := reg.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	if reg.EntityCount() != 2 {
		t.Errorf("EntityCount() = %d, want 2", reg.EntityCount())
	}
	if reg.DeviceCount() != 1 {
		t.Errorf("DeviceCount() = %d, want 1", reg.DeviceCount())
	}
}

func TestRegistry_GetEntity(t *testing.T) {
	reg, entityRepo, _ := newTestRegistry(t)
	ctx := context.Background()

	entityRepo.addEntity(testEntity("sensor.kitchen", nil))
	reg.RefreshCache(ctx)

	t.Run("returns entity from cache", func(t *testing.T) {
		got, err := reg.GetEntity(ctx, "sensor.kitchen")
		if err != nil {
			t.Fatalf("GetEntity() error = %v", err)
		}
		if got.EntityID != "sensor.kitchen" {
			t.Errorf("EntityID = %q, want %q", got.EntityID, "sensor.kitchen")
		}
	})

	t.Run("returns ErrEntityNotFound for nonexistent", func(t *testing.T) {
		_, err := reg.GetEntity(ctx, "sensor.nonexistent")
		if !errors.Is(err, ErrEntityNotFound) {
			t.Errorf("GetEntity() error = %v, want ErrEntityNotFound", err)
		}
	})

	t.Run("falls back to repository for uncached entity", func(t *testing.T) {
		entityRepo.addEntity(testEntity("sensor.late", nil))
		got, err := reg.GetEntity(ctx, "sensor.late")
		if err != nil {
			t.Fatalf("GetEntity() error = %v", err)
		}
		if got.EntityID != "sensor.late" {
			t.Errorf("EntityID = %q, want %q", got.EntityID, "sensor.late")
		}
	})
}

func TestRegistry_ListEntitiesSorted(t *testing.T) {
	reg, entityRepo, _ := newTestRegistry(t)
	ctx := context.Background()

	entityRepo.addEntity(testEntity("sensor.zulu", nil))
	entityRepo.addEntity(testEntity("sensor.alpha", nil))
	entityRepo.addEntity(testEntity("sensor.mike", nil))
	reg.RefreshCache(ctx)

	entities, err := reg.ListEntities(ctx)
	if err != nil {
		t.Fatalf("ListEntities() error = %v", err)
	}

	want := []string{"sensor.alpha", "sensor.mike", "sensor.zulu"}
	if len(entities) != len(want) {
		t.Fatalf("len = %d, want %d", len(entities), len(want))
	}
	for i, id := range want {
		if entities[i].EntityID != id {
			t.Errorf("entities[%d].EntityID = %q, want %q", i, entities[i].EntityID, id)
		}
	}
}

func TestRegistry_RemoveItems(t *testing.T) {
	ctx := context.Background()

	t.Run("removes entities and devices", func(t *testing.T) {
		reg, entityRepo, deviceRepo := newTestRegistry(t)
		devID := "dev-gone"
		entityRepo.addEntity(testEntity("sensor.gone", &devID))
		entityRepo.addEntity(testEntity("sensor.stays", nil))
		deviceRepo.addDevice(testDevice("dev-gone", "Doomed Device"))
		reg.RefreshCache(ctx)

		result, err := reg.RemoveItems(ctx, []string{"sensor.gone"}, []string{"dev-gone"})
		if err != nil {
			t.Fatalf("RemoveItems() error = %v", err)
		}
		if result.EntitiesRemoved != 1 {
			t.Errorf("EntitiesRemoved = %d, want 1", result.EntitiesRemoved)
		}
		if result.DevicesRemoved != 1 {
			t.Errorf("DevicesRemoved = %d, want 1", result.DevicesRemoved)
		}

		if _, err := reg.GetEntity(ctx, "sensor.gone"); !errors.Is(err, ErrEntityNotFound) {
			t.Errorf("GetEntity() after removal error = %v, want ErrEntityNotFound", err)
		}
		if _, err := reg.GetEntity(ctx, "sensor.stays"); err != nil {
			t.Errorf("GetEntity(sensor.stays) error = %v, want nil", err)
		}
	})

	t.Run("missing ids are skipped without error", func(t *testing.T) {
		reg, entityRepo, _ := newTestRegistry(t)
		entityRepo.addEntity(testEntity("sensor.present", nil))
		reg.RefreshCache(ctx)

		result, err := reg.RemoveItems(ctx,
			[]string{"sensor.absent", "sensor.present"},
			[]string{"dev-absent"},
		)
		if err != nil {
			t.Fatalf("RemoveItems() error = %v", err)
		}
		if result.EntitiesRemoved != 1 {
			t.Errorf("EntitiesRemoved = %d, want 1", result.EntitiesRemoved)
		}
		if result.DevicesRemoved != 0 {
			t.Errorf("DevicesRemoved = %d, want 0", result.DevicesRemoved)
		}
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		reg, entityRepo, _ := newTestRegistry(t)
		entityRepo.deleteErr = errors.New("disk on fire")
		reg.RefreshCache(ctx)

		_, err := reg.RemoveItems(ctx, []string{"sensor.any"}, nil)
		if err == nil {
			t.Fatal("RemoveItems() error = nil, want error")
		}
	})

	t.Run("device removal does not cascade to entities", func(t *testing.T) {
		reg, entityRepo, deviceRepo := newTestRegistry(t)
		devID := "dev-orphaned"
		entityRepo.addEntity(testEntity("sensor.orphan", &devID))
		deviceRepo.addDevice(testDevice("dev-orphaned", "Parent"))
		reg.RefreshCache(ctx)

		if _, err := reg.RemoveItems(ctx, nil, []string{"dev-orphaned"}); err != nil {
			t.Fatalf("RemoveItems() error = %v", err)
		}

		got, err := reg.GetEntity(ctx, "sensor.orphan")
		if err != nil {
			t.Fatalf("GetEntity() error = %v", err)
		}
		if got.DeviceID == nil || *got.DeviceID != "dev-orphaned" {
			t.Errorf("DeviceID = %v, want dev-orphaned", got.DeviceID)
		}
	})
}

func TestRegistry_CacheIsolation(t *testing.T) {
	reg, entityRepo, _ := newTestRegistry(t)
	ctx := context.Background()

	devID := "dev-iso"
	entityRepo.addEntity(testEntity("sensor.iso", &devID))
	reg.RefreshCache(ctx)

	first, err := reg.GetEntity(ctx, "sensor.iso")
	if err != nil {
		t.Fatalf("GetEntity() error = %v", err)
	}

	// Mutate the returned copy; the cache must not see it.
	*first.DeviceID = "dev-mutated"
	first.Name = "mutated"

	second, err := reg.GetEntity(ctx, "sensor.iso")
	if err != nil {
		t.Fatalf("GetEntity() error = %v", err)
	}
	if *second.DeviceID != "dev-iso" {
		t.Errorf("DeviceID = %q, want %q", *second.DeviceID, "dev-iso")
	}
	if second.Name != "sensor.iso" {
		t.Errorf("Name = %q, want %q", second.Name, "sensor.iso")
	}
}

func TestSnapshotBuilder_BuildSnapshot(t *testing.T) {
	reg, entityRepo, deviceRepo := newTestRegistry(t)
	ctx := context.Background()

	devID := "dev-snap"
	entityRepo.addEntity(testEntity("sensor.snap_a", &devID))
	entityRepo.addEntity(testEntity("sensor.snap_b", nil))
	deviceRepo.addDevice(testDevice("dev-snap", "Snapshot Device"))
	reg.RefreshCache(ctx)

	states := NewStateStore()
	changed := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	states.Set("sensor.snap_a", report.StatusUnavailable, changed)
	states.Set("sensor.snap_b", report.StatusUnknown, changed)

	now := time.Date(2026, 8, 30, 10, 5, 0, 0, time.UTC)
	snap := NewSnapshotBuilder(reg, states).BuildSnapshot(now)

	if !snap.Now.Equal(now) {
		t.Errorf("Now = %v, want %v", snap.Now, now)
	}
	if len(snap.States) != 2 {
		t.Fatalf("len(States) = %d, want 2", len(snap.States))
	}

	meta, ok := snap.Entity("sensor.snap_a")
	if !ok {
		t.Fatal("Entity(sensor.snap_a) not found")
	}
	if meta.DeviceID != "dev-snap" {
		t.Errorf("DeviceID = %q, want %q", meta.DeviceID, "dev-snap")
	}

	device, ok := snap.Device("dev-snap")
	if !ok {
		t.Fatal("Device(dev-snap) not found")
	}
	if device.DisplayName() != "Snapshot Device" {
		t.Errorf("DisplayName() = %q, want %q", device.DisplayName(), "Snapshot Device")
	}

	if got := snap.EntitiesForDevice("dev-snap"); len(got) != 1 || got[0] != "sensor.snap_a" {
		t.Errorf("EntitiesForDevice() = %v, want [sensor.snap_a]", got)
	}
}

func TestSnapshotBuilder_SnapshotIsDetached(t *testing.T) {
	reg, entityRepo, _ := newTestRegistry(t)
	ctx := context.Background()

	entityRepo.addEntity(testEntity("sensor.detached", nil))
	reg.RefreshCache(ctx)

	states := NewStateStore()
	states.Set("sensor.detached", report.StatusUnavailable, time.Now().UTC())

	snap := NewSnapshotBuilder(reg, states).BuildSnapshot(time.Now().UTC())

	// Later state changes must not leak into the built snapshot.
	states.Set("sensor.detached", report.StatusUnknown, time.Now().UTC())

	st, ok := snap.State("sensor.detached")
	if !ok {
		t.Fatal("State(sensor.detached) not found")
	}
	if st.Status != report.StatusUnavailable {
		t.Errorf("Status = %q, want %q", st.Status, report.StatusUnavailable)
	}
}
