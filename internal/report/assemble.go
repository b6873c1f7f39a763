package report

import "fmt"

// List-length ceilings for the assembled attribute bag. The structure
// itself is persisted, not just the markdown, so lists are capped
// independently of pagination.
const (
	// StructuredListLimit caps record lists and excluded display lists.
	StructuredListLimit = 20

	// FlatListLimit caps the flattened id-only lists, which are cheaper
	// to store.
	FlatListLimit = 100
)

// Icon selection signals derived from the severity count.
const (
	IconOK    = "mdi:check-circle"
	IconAlert = "mdi:alert-circle"
)

// Report is the final attribute set produced by one evaluation cycle,
// consumed by the external state-publishing layer.
type Report struct {
	// Count is the severity total; Icon is derived from it.
	Count int    `json:"count"`
	Icon  string `json:"icon"`

	// Attributes is the persisted attribute bag: structured lists,
	// truncation counters, and paginated markdown pages.
	Attributes map[string]any `json:"attributes"`

	// Err records a formatting failure, if any. The attribute bag still
	// carries a best-effort report with an "error" marker.
	Err error `json:"-"`
}

// Assembler turns classifications into persisted attribute sets. It
// retains the previous cycle's count and icon so a formatting failure
// degrades to an error marker instead of losing the last known state.
// An Assembler is not safe for concurrent use.
type Assembler struct {
	prevCount int
	prevIcon  string
}

// NewAssembler creates an Assembler with an all-clear previous state.
func NewAssembler() *Assembler {
	return &Assembler{prevIcon: IconOK}
}

// Evaluate runs the full pipeline on one snapshot: classification,
// formatting, pagination, and assembly. It never returns a nil-attribute
// report; on a formatting failure the report carries an error marker and
// the previous cycle's count and icon.
func (a *Assembler) Evaluate(snap *Snapshot, opts Options) Report {
	if snap == nil {
		return Report{
			Count:      a.prevCount,
			Icon:       a.prevIcon,
			Attributes: map[string]any{"error": ErrNilSnapshot.Error()},
			Err:        ErrNilSnapshot,
		}
	}

	c := Classify(snap, opts)
	rep := a.assemble(snap, opts, c)

	if rep.Err == nil {
		a.prevCount = rep.Count
		a.prevIcon = rep.Icon
	}
	return rep
}

// assemble builds the attribute bag from a classification. Structured
// lists are capped first; document rendering and pagination run inside a
// recovery guard so a failure there degrades rather than aborting the
// cycle.
func (a *Assembler) assemble(snap *Snapshot, opts Options, c Classification) Report {
	attrs := make(map[string]any)
	attrs["count"] = c.Count

	capDeviceList(attrs, "unavailable_devices", c.UnavailableDevices)
	capDeviceList(attrs, "unknown_devices", c.UnknownDevices)
	capEntityList(attrs, "unavailable_entities", c.UnavailableEntities)
	capEntityList(attrs, "unknown_entities", c.UnknownEntities)

	attrs["unavailable_device_ids"] = capFlat(deviceIDs(c.UnavailableDevices))
	attrs["unknown_device_ids"] = capFlat(deviceIDs(c.UnknownDevices))
	attrs["unavailable_entity_ids"] = capFlat(entityIDs(c.UnavailableEntities))
	attrs["unknown_entity_ids"] = capFlat(entityIDs(c.UnknownEntities))

	capStringList(attrs, "excluded_devices", excludedDeviceNames(snap, opts.Exclusions))
	capStringList(attrs, "excluded_entities", opts.Exclusions.EntityTokens())

	rep := Report{Attributes: attrs}
	if err := renderInto(attrs, c, opts.MaxPageBytes); err != nil {
		attrs["error"] = err.Error()
		rep.Err = err
		rep.Count = a.prevCount
		rep.Icon = a.prevIcon
		return rep
	}

	rep.Count = c.Count
	if c.Count == 0 {
		rep.Icon = IconOK
	} else {
		rep.Icon = IconAlert
	}
	return rep
}

// renderInto formats both documents and paginates them into the attribute
// bag. A panic while rendering is recovered and surfaced as ErrFormatting
// so the assembler can degrade instead of aborting the cycle.
func renderInto(attrs map[string]any, c Classification, maxPageBytes int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFormatting, r)
		}
	}()

	paginateInto(attrs, "devices", FormatDevicesReport(c), maxPageBytes)
	paginateInto(attrs, "entities", FormatEntitiesReport(c), maxPageBytes)
	return nil
}

// paginateInto stores a document's pages as {prefix}_page_{n} attributes
// (1-based) with a sibling {prefix}_pages count.
func paginateInto(attrs map[string]any, prefix, document string, maxPageBytes int) {
	pages := Paginate(document, maxPageBytes)
	attrs[prefix+"_pages"] = len(pages)
	for i, page := range pages {
		attrs[fmt.Sprintf("%s_page_%d", prefix, i+1)] = page
	}
}

// InitialReport is the placeholder attribute set published before the
// startup settling delay has elapsed.
func InitialReport() Report {
	return Report{
		Count: 0,
		Icon:  IconOK,
		Attributes: map[string]any{
			"count":           0,
			"devices_page_1":  "✅ **System Initializing...**",
			"devices_pages":   1,
			"entities_page_1": "✅ **System Initializing...**",
			"entities_pages":  1,
		},
	}
}

func capDeviceList(attrs map[string]any, key string, records []DeviceRecord) {
	if len(records) > StructuredListLimit {
		attrs[key] = records[:StructuredListLimit]
		attrs[key+"_truncated"] = len(records) - StructuredListLimit
		return
	}
	attrs[key] = emptyNotNilDevices(records)
}

func capEntityList(attrs map[string]any, key string, records []EntityRecord) {
	if len(records) > StructuredListLimit {
		attrs[key] = records[:StructuredListLimit]
		attrs[key+"_truncated"] = len(records) - StructuredListLimit
		return
	}
	attrs[key] = emptyNotNilEntities(records)
}

func capStringList(attrs map[string]any, key string, values []string) {
	if len(values) > StructuredListLimit {
		attrs[key] = values[:StructuredListLimit]
		attrs[key+"_truncated"] = len(values) - StructuredListLimit
		return
	}
	attrs[key] = emptyNotNilStrings(values)
}

// capFlat truncates a flat id list to FlatListLimit, keeping the first
// entries in existing sort order. No counter; flat lists cap silently.
func capFlat(ids []string) []string {
	if len(ids) > FlatListLimit {
		return ids[:FlatListLimit]
	}
	return emptyNotNilStrings(ids)
}

// excludedDeviceNames resolves excluded device ids to display names for
// the excluded_devices attribute. Ids with no metadata render with an
// explicit fallback rather than being dropped.
func excludedDeviceNames(snap *Snapshot, exclusions ExclusionSet) []string {
	ids := exclusions.DeviceIDs()
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if dev, ok := snap.Device(id); ok && dev.DisplayName() != "" {
			names = append(names, dev.DisplayName())
			continue
		}
		names = append(names, fmt.Sprintf("Unknown Device (%s)", id))
	}
	return names
}

func deviceIDs(records []DeviceRecord) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.DeviceID
	}
	return ids
}

func entityIDs(records []EntityRecord) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.EntityID
	}
	return ids
}

// Empty lists serialize as [] rather than null in the persisted bag.
func emptyNotNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func emptyNotNilDevices(v []DeviceRecord) []DeviceRecord {
	if v == nil {
		return []DeviceRecord{}
	}
	return v
}

func emptyNotNilEntities(v []EntityRecord) []EntityRecord {
	if v == nil {
		return []EntityRecord{}
	}
	return v
}
