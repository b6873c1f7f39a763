package report

import "time"

// Status is an entity's observed state value. Only unavailable and unknown
// statuses are candidates for reporting; any other value means the entity
// is live.
type Status string

// Status constants.
const (
	StatusUnavailable Status = "unavailable"
	StatusUnknown     Status = "unknown"
)

// Failing reports whether the status is one of the two reportable values.
func (s Status) Failing() bool {
	return s == StatusUnavailable || s == StatusUnknown
}

// Category classifies an entity's role within its device. Diagnostic and
// config entities are excluded from candidate selection and from
// device-failure denominators.
type Category string

// Category constants.
const (
	CategoryNone       Category = ""
	CategoryDiagnostic Category = "diagnostic"
	CategoryConfig     Category = "config"
)

// Auxiliary reports whether the category removes the entity from
// aggregation (diagnostic or config).
func (c Category) Auxiliary() bool {
	return c == CategoryDiagnostic || c == CategoryConfig
}

// EntityState is one monitored entity's observed status at snapshot time.
type EntityState struct {
	EntityID    string    `json:"entity_id"`
	Status      Status    `json:"status"`
	LastChanged time.Time `json:"last_changed"`
}

// EntityMeta is registry metadata for an entity.
type EntityMeta struct {
	EntityID string `json:"entity_id"`

	// DeviceID is the owning device, empty when the entity is standalone.
	DeviceID string `json:"device_id,omitempty"`

	Category Category `json:"category,omitempty"`

	// HiddenBy and DisabledBy record who hid/disabled the entity
	// (user, integration). Empty means visible/enabled.
	HiddenBy   string `json:"hidden_by,omitempty"`
	DisabledBy string `json:"disabled_by,omitempty"`
}

// Registered reports whether the entity should render as a navigable
// reference: it has registry metadata and is neither hidden nor disabled.
func (m EntityMeta) Registered() bool {
	return m.HiddenBy == "" && m.DisabledBy == ""
}

// DeviceMeta is registry metadata for a device.
type DeviceMeta struct {
	DeviceID string `json:"device_id"`

	// Name is the integration-assigned default name.
	Name string `json:"name"`

	// NameByUser is the user-assigned name, which takes precedence.
	NameByUser string `json:"name_by_user,omitempty"`
}

// DisplayName resolves the device's display name. The user-assigned name
// wins; an empty result means the device has no resolvable name and is
// omitted from rendered lists (but still counted).
func (m DeviceMeta) DisplayName() string {
	if m.NameByUser != "" {
		return m.NameByUser
	}
	return m.Name
}

// Snapshot is an immutable point-in-time view of the platform: every
// entity's observed status plus registry metadata lookups. It is built once
// per evaluation cycle by the registry collaborator and never mutated by
// the engine.
type Snapshot struct {
	// Now is the evaluation timestamp durations are measured against.
	Now time.Time

	// States holds every entity's observed status, in a stable order.
	States []EntityState

	// Entities and Devices are metadata lookups by id.
	Entities map[string]EntityMeta
	Devices  map[string]DeviceMeta

	stateByID     map[string]EntityState
	entitiesByDev map[string][]string
}

// NewSnapshot builds a Snapshot with its lookup indexes. The inputs are
// retained, not copied; callers must not mutate them afterwards.
func NewSnapshot(now time.Time, states []EntityState, entities map[string]EntityMeta, devices map[string]DeviceMeta) *Snapshot {
	s := &Snapshot{
		Now:           now,
		States:        states,
		Entities:      entities,
		Devices:       devices,
		stateByID:     make(map[string]EntityState, len(states)),
		entitiesByDev: make(map[string][]string),
	}
	for _, st := range states {
		s.stateByID[st.EntityID] = st
	}
	for id, meta := range entities {
		if meta.DeviceID != "" {
			s.entitiesByDev[meta.DeviceID] = append(s.entitiesByDev[meta.DeviceID], id)
		}
	}
	return s
}

// State returns the observed state for an entity id. An entity may be
// absent from state entirely; absence counts toward neither failure
// counter during device aggregation.
func (s *Snapshot) State(entityID string) (EntityState, bool) {
	st, ok := s.stateByID[entityID]
	return st, ok
}

// Entity returns registry metadata for an entity id.
func (s *Snapshot) Entity(entityID string) (EntityMeta, bool) {
	m, ok := s.Entities[entityID]
	return m, ok
}

// Device returns registry metadata for a device id.
func (s *Snapshot) Device(deviceID string) (DeviceMeta, bool) {
	m, ok := s.Devices[deviceID]
	return m, ok
}

// EntitiesForDevice returns the ids of all entities registered to the
// device, failing or not. The full set is the denominator for the
// full-failure rule.
func (s *Snapshot) EntitiesForDevice(deviceID string) []string {
	return s.entitiesByDev[deviceID]
}

// Options controls a single evaluation.
type Options struct {
	// IgnoreUnknown removes unknown-status entities from candidate
	// selection and from device-failure counting. It never affects
	// unavailable-status entities.
	IgnoreUnknown bool

	// Exclusions holds the user-configured device and entity exclusions.
	Exclusions ExclusionSet

	// MaxPageBytes is the pagination budget; DefaultMaxPageBytes when zero.
	MaxPageBytes int
}

// DeviceRecord is one fully-failed device in the assembled report.
// Name is empty when the device has no resolvable display name; such
// devices are counted but omitted from rendered name lists.
type DeviceRecord struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// EntityRecord is one standalone failing entity in the assembled report.
type EntityRecord struct {
	EntityID     string `json:"entity"`
	Duration     string `json:"duration"`
	IsRegistered bool   `json:"is_registered"`
}

// Classification is the outcome of one evaluation cycle: fully-failed
// devices and standalone entities partitioned by severity. A device and
// its own entities are mutually exclusive: entities of a fully-failed
// device never also appear standalone.
type Classification struct {
	UnavailableDevices  []DeviceRecord
	UnknownDevices      []DeviceRecord
	UnavailableEntities []EntityRecord
	UnknownEntities     []EntityRecord

	// Count is the severity total: fully-failed devices plus standalone
	// entities. A failed device with N failing entities counts once.
	Count int
}
