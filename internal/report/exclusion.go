package report

// ExclusionSet holds the user-configured exclusions: device ids and entity
// id-or-name tokens. Configuration order is preserved for display lists.
//
// Entity tokens match entity ids directly, and also match a candidate's
// resolved device display name. The name match is legacy compatibility:
// a raw device name typed into an early YAML entity-exclusion list must
// still exclude that device's entities.
type ExclusionSet struct {
	deviceIDs    []string
	entityTokens []string

	deviceIDSet    map[string]struct{}
	entityTokenSet map[string]struct{}
}

// NewExclusionSet builds an ExclusionSet from configured device ids and
// entity id/name tokens. Duplicates are kept in the display lists but
// membership checks are set-based.
func NewExclusionSet(deviceIDs, entityTokens []string) ExclusionSet {
	s := ExclusionSet{
		deviceIDs:      deviceIDs,
		entityTokens:   entityTokens,
		deviceIDSet:    make(map[string]struct{}, len(deviceIDs)),
		entityTokenSet: make(map[string]struct{}, len(entityTokens)),
	}
	for _, id := range deviceIDs {
		s.deviceIDSet[id] = struct{}{}
	}
	for _, tok := range entityTokens {
		s.entityTokenSet[tok] = struct{}{}
	}
	return s
}

// Excludes decides whether a candidate entity is excluded. Rules are
// checked in order; any match excludes:
//
//  1. entityID is an excluded entity token
//  2. deviceID (when present) is an excluded device id
//  3. deviceName (when resolvable) is an excluded entity token
//
// Absent or unresolvable values simply fail to match and never exclude.
func (s ExclusionSet) Excludes(entityID, deviceID, deviceName string) bool {
	if _, ok := s.entityTokenSet[entityID]; ok {
		return true
	}
	if deviceID != "" {
		if _, ok := s.deviceIDSet[deviceID]; ok {
			return true
		}
	}
	if deviceName != "" {
		if _, ok := s.entityTokenSet[deviceName]; ok {
			return true
		}
	}
	return false
}

// DeviceIDs returns the configured excluded device ids in configuration
// order.
func (s ExclusionSet) DeviceIDs() []string {
	return s.deviceIDs
}

// EntityTokens returns the configured excluded entity tokens in
// configuration order.
func (s ExclusionSet) EntityTokens() []string {
	return s.entityTokens
}
