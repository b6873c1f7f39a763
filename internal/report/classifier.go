package report

import "sort"

// candidate is one surviving unavailable/unknown entity after exclusion
// filtering, with its resolved device context.
type candidate struct {
	state      EntityState
	deviceID   string
	deviceName string
	duration   string
	registered bool
}

// deviceTally aggregates the live status of every eligible entity
// registered to one device. Eligible means non-disabled and not
// diagnostic/config; the eligible set is the denominator for the
// full-failure rule.
type deviceTally struct {
	deviceID    string
	name        string
	duration    string
	total       int
	unavailable int
	unknown     int
}

// fullyFailed reports whether every eligible entity is unavailable or
// unknown. Devices with no eligible entities are never fully failed.
func (t deviceTally) fullyFailed() bool {
	return t.total > 0 && t.unavailable+t.unknown == t.total
}

// severity is the device-level severity: unavailable when any entity is
// truly unavailable, unknown when all failing entities are merely unknown.
func (t deviceTally) severity() Status {
	if t.unavailable > 0 {
		return StatusUnavailable
	}
	return StatusUnknown
}

// Classify partitions the snapshot's unavailable/unknown entities into
// fully-failed devices and standalone entities, split by severity.
//
// The stages mirror the report pipeline: candidate selection, exclusion
// filtering, per-device aggregation, full-failure classification, and
// standalone resolution. Output lists are sorted: devices by display name
// then device id, entities by entity id.
func Classify(snap *Snapshot, opts Options) Classification {
	candidates, deviceOrder, deviceInfo := selectCandidates(snap, opts)
	failed := aggregateDevices(snap, opts, deviceOrder, deviceInfo)

	var c Classification
	for _, id := range deviceOrder {
		tally, ok := failed[id]
		if !ok {
			continue
		}
		rec := DeviceRecord{DeviceID: id, Name: tally.name, Duration: tally.duration}
		if tally.severity() == StatusUnavailable {
			c.UnavailableDevices = append(c.UnavailableDevices, rec)
		} else {
			c.UnknownDevices = append(c.UnknownDevices, rec)
		}
		c.Count++
	}

	// Candidates not covered by a fully-failed device fall through to
	// standalone handling with their own status as severity.
	for _, cand := range candidates {
		if cand.deviceID != "" {
			if _, ok := failed[cand.deviceID]; ok {
				continue
			}
		}
		rec := EntityRecord{
			EntityID:     cand.state.EntityID,
			Duration:     cand.duration,
			IsRegistered: cand.registered,
		}
		if cand.state.Status == StatusUnavailable {
			c.UnavailableEntities = append(c.UnavailableEntities, rec)
		} else {
			c.UnknownEntities = append(c.UnknownEntities, rec)
		}
		c.Count++
	}

	sortDeviceRecords(c.UnavailableDevices)
	sortDeviceRecords(c.UnknownDevices)
	sortEntityRecords(c.UnavailableEntities)
	sortEntityRecords(c.UnknownEntities)

	return c
}

// selectCandidates applies raw candidate selection and exclusion filtering.
// It returns the surviving candidates in snapshot order, the distinct
// device ids they reference in first-seen order, and per-device display
// info taken from the first candidate of each device.
func selectCandidates(snap *Snapshot, opts Options) ([]candidate, []string, map[string]deviceTally) {
	var candidates []candidate
	var deviceOrder []string
	deviceInfo := make(map[string]deviceTally)

	for _, st := range snap.States {
		if !st.Status.Failing() {
			continue
		}
		if st.Status == StatusUnknown && opts.IgnoreUnknown {
			continue
		}

		meta, hasMeta := snap.Entity(st.EntityID)
		if hasMeta && meta.Category.Auxiliary() {
			continue
		}

		deviceID := ""
		deviceName := ""
		if hasMeta && meta.DeviceID != "" {
			deviceID = meta.DeviceID
			if dev, ok := snap.Device(deviceID); ok {
				deviceName = dev.DisplayName()
			}
		}

		if opts.Exclusions.Excludes(st.EntityID, deviceID, deviceName) {
			continue
		}

		cand := candidate{
			state:      st,
			deviceID:   deviceID,
			deviceName: deviceName,
			duration:   durationSince(snap.Now, st.LastChanged),
			registered: hasMeta && meta.Registered(),
		}
		candidates = append(candidates, cand)

		if deviceID != "" {
			if _, seen := deviceInfo[deviceID]; !seen {
				deviceOrder = append(deviceOrder, deviceID)
				deviceInfo[deviceID] = deviceTally{
					deviceID: deviceID,
					name:     deviceName,
					duration: cand.duration,
				}
			}
		}
	}

	return candidates, deviceOrder, deviceInfo
}

// aggregateDevices walks every device referenced by a surviving candidate
// and tallies the live status of all its eligible entities, returning the
// tallies of devices that reached full failure.
func aggregateDevices(snap *Snapshot, opts Options, deviceOrder []string, deviceInfo map[string]deviceTally) map[string]deviceTally {
	failed := make(map[string]deviceTally)

	for _, deviceID := range deviceOrder {
		tally := deviceInfo[deviceID]

		for _, entityID := range snap.EntitiesForDevice(deviceID) {
			meta, ok := snap.Entity(entityID)
			if !ok {
				continue
			}
			if meta.DisabledBy != "" || meta.Category.Auxiliary() {
				continue
			}

			tally.total++

			// An entity absent from state counts toward neither
			// counter, which keeps the device out of full failure.
			st, ok := snap.State(entityID)
			if !ok {
				continue
			}
			switch st.Status {
			case StatusUnavailable:
				tally.unavailable++
			case StatusUnknown:
				if !opts.IgnoreUnknown {
					tally.unknown++
				}
			}
		}

		if tally.fullyFailed() {
			failed[deviceID] = tally
		}
	}

	return failed
}

func sortDeviceRecords(records []DeviceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].DeviceID < records[j].DeviceID
	})
}

func sortEntityRecords(records []EntityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EntityID < records[j].EntityID
	})
}
