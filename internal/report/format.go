package report

import (
	"fmt"
	"strings"
)

// All-clear sentinels, distinct between the two documents.
const (
	DevicesAllClear  = "✅ No unavailable devices."
	EntitiesAllClear = "✅ No standalone unavailable entities."
)

// Section headers.
const (
	headerUnavailableDevices = "**📱 Unavailable Devices**"
	headerUnknownDevices     = "**📱 Unknown Devices**"
	headerStandaloneEntities = "**👻 Standalone Entities**"
	headerUnknownEntities    = "**👻 Unknown Entities**"
)

// FormatDevicesReport renders the devices-only markdown document:
// "Unavailable Devices" then "Unknown Devices", each a bullet list sorted
// by display name. Devices with no resolvable name are omitted from the
// bullet lists, but a non-empty bucket always renders its header. An
// empty classification renders the devices all-clear sentinel. Output is
// deterministic and idempotent for a given classification.
func FormatDevicesReport(c Classification) string {
	if len(c.UnavailableDevices) == 0 && len(c.UnknownDevices) == 0 {
		return DevicesAllClear
	}

	var b strings.Builder
	writeDeviceSection(&b, headerUnavailableDevices, c.UnavailableDevices)
	writeDeviceSection(&b, headerUnknownDevices, c.UnknownDevices)
	return strings.TrimSpace(b.String())
}

// FormatEntitiesReport renders the entities-only markdown document:
// "Standalone Entities" (unavailable) then "Unknown Entities", each a
// bullet list sorted by entity id. Registered entities render as
// navigable links, unregistered as plain text. An empty classification
// renders the entities all-clear sentinel.
func FormatEntitiesReport(c Classification) string {
	if len(c.UnavailableEntities) == 0 && len(c.UnknownEntities) == 0 {
		return EntitiesAllClear
	}

	var b strings.Builder
	writeEntitySection(&b, headerStandaloneEntities, c.UnavailableEntities)
	writeEntitySection(&b, headerUnknownEntities, c.UnknownEntities)
	return strings.TrimSpace(b.String())
}

func writeDeviceSection(b *strings.Builder, header string, records []DeviceRecord) {
	if len(records) == 0 {
		return
	}

	// The header reflects the bucket, not its renderable subset: a bucket
	// holding only nameless devices still gets its header, just no bullets.
	b.WriteString(header)
	b.WriteString("\n")

	rendered := make([]DeviceRecord, 0, len(records))
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		rendered = append(rendered, rec)
	}
	sortDeviceRecords(rendered)

	for _, rec := range rendered {
		fmt.Fprintf(b, "- [%s](/config/devices/device/%s) _(%s)_\n", rec.Name, rec.DeviceID, rec.Duration)
	}
	b.WriteString("\n")
}

func writeEntitySection(b *strings.Builder, header string, records []EntityRecord) {
	if len(records) == 0 {
		return
	}
	sorted := make([]EntityRecord, len(records))
	copy(sorted, records)
	sortEntityRecords(sorted)

	b.WriteString(header)
	b.WriteString("\n")
	for _, rec := range sorted {
		if rec.IsRegistered {
			fmt.Fprintf(b, "- [%s](/config/entities/entity/%s) _(%s)_\n", rec.EntityID, rec.EntityID, rec.Duration)
		} else {
			fmt.Fprintf(b, "- %s _(%s)_\n", rec.EntityID, rec.Duration)
		}
	}
	b.WriteString("\n")
}
