package registry

import (
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// Entity is one monitored entity in the registry.
type Entity struct {
	// Identity
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`

	// DeviceID is the owning device; nil for standalone entities.
	DeviceID *string `json:"device_id,omitempty"`

	// Category marks diagnostic/config entities, which never participate
	// in unavailability aggregation.
	Category report.Category `json:"category,omitempty"`

	// HiddenBy and DisabledBy record who hid or disabled the entity
	// ("user", "integration"). Nil means visible/enabled.
	HiddenBy   *string `json:"hidden_by,omitempty"`
	DisabledBy *string `json:"disabled_by,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta converts the registry entry to the report engine's metadata view.
func (e *Entity) Meta() report.EntityMeta {
	m := report.EntityMeta{
		EntityID: e.EntityID,
		Category: e.Category,
	}
	if e.DeviceID != nil {
		m.DeviceID = *e.DeviceID
	}
	if e.HiddenBy != nil {
		m.HiddenBy = *e.HiddenBy
	}
	if e.DisabledBy != nil {
		m.DisabledBy = *e.DisabledBy
	}
	return m
}

// DeepCopy returns a copy of the entity with no shared pointers.
func (e *Entity) DeepCopy() *Entity {
	clone := *e
	clone.DeviceID = copyStringPtr(e.DeviceID)
	clone.HiddenBy = copyStringPtr(e.HiddenBy)
	clone.DisabledBy = copyStringPtr(e.DisabledBy)
	return &clone
}

// Device is one registered device.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// NameByUser is the user-assigned name; it takes precedence over the
	// integration default when resolving display names.
	NameByUser *string `json:"name_by_user,omitempty"`

	// Metadata
	Manufacturer *string `json:"manufacturer,omitempty"`
	Model        *string `json:"model,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName resolves the device's display name: the user-assigned name
// when set, otherwise the default name. Empty means unresolvable.
func (d *Device) DisplayName() string {
	if d.NameByUser != nil && *d.NameByUser != "" {
		return *d.NameByUser
	}
	return d.Name
}

// Meta converts the registry entry to the report engine's metadata view.
func (d *Device) Meta() report.DeviceMeta {
	m := report.DeviceMeta{
		DeviceID: d.ID,
		Name:     d.Name,
	}
	if d.NameByUser != nil {
		m.NameByUser = *d.NameByUser
	}
	return m
}

// DeepCopy returns a copy of the device with no shared pointers.
func (d *Device) DeepCopy() *Device {
	clone := *d
	clone.NameByUser = copyStringPtr(d.NameByUser)
	clone.Manufacturer = copyStringPtr(d.Manufacturer)
	clone.Model = copyStringPtr(d.Model)
	return &clone
}

// copyStringPtr clones an optional string pointer.
func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
