package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrEntityNotFound) {
//	    // handle not found case
//	}
var (
	// ErrEntityNotFound is returned when an entity id does not exist.
	ErrEntityNotFound = errors.New("registry: entity not found")

	// ErrEntityExists is returned when creating an entity with an id
	// that already exists.
	ErrEntityExists = errors.New("registry: entity already exists")

	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrDeviceExists is returned when creating a device with an id
	// that already exists.
	ErrDeviceExists = errors.New("registry: device already exists")

	// ErrInvalidEntity is returned when entity validation fails.
	ErrInvalidEntity = errors.New("registry: invalid entity")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("registry: invalid device")
)
