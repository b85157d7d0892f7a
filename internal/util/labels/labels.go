package labels

// Tag keys applied to fleet resources.
const (
	// KeyFleet is the fleet-ownership tag. Every instance, volume and
	// security group of a fleet carries it.
	KeyFleet = "fleetctl.io/fleet"

	// KeyRole separates the controller from worker instances.
	KeyRole = "fleetctl.io/role"

	// KeyGroup carries the worker group label.
	KeyGroup = "fleetctl.io/group"

	// KeyName mirrors the resource display name.
	KeyName = "fleetctl.io/name"

	// KeyManagedBy identifies the tool that created the resource.
	KeyManagedBy = "fleetctl.io/managed-by"

	// KeyReservation marks an instance launched for a fleet before it has
	// been adopted with the ownership tag.
	KeyReservation = "fleetctl.io/reservation"
)

// Role values.
const (
	RoleController = "controller"
	RoleWorker     = "worker"
)

// ManagedBy is the value of KeyManagedBy.
const ManagedBy = "fleetctl"

// LabelBuilder builds a tag map for a fleet resource.
type LabelBuilder struct {
	labels map[string]string
}

// NewReservationLabels returns the creation-time tags for a fleet
// instance. They identify the launch without the ownership tag.
func NewReservationLabels(fleetName, role, group string) map[string]string {
	tags := map[string]string{
		KeyReservation: fleetName,
		KeyManagedBy:   ManagedBy,
		KeyRole:        role,
	}
	if group != "" {
		tags[KeyGroup] = group
	}
	return tags
}

// NewLabelBuilder starts a tag set carrying the fleet-ownership tag.
func NewLabelBuilder(fleetName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyFleet:     fleetName,
			KeyManagedBy: ManagedBy,
		},
	}
}

// WithRole sets the instance role.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithGroup sets the worker group label.
func (lb *LabelBuilder) WithGroup(group string) *LabelBuilder {
	if group != "" {
		lb.labels[KeyGroup] = group
	}
	return lb
}

// WithName sets the display-name tag.
func (lb *LabelBuilder) WithName(name string) *LabelBuilder {
	lb.labels[KeyName] = name
	return lb
}

// Merge adds all tags from extra, overriding existing keys.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the tag map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// FleetSelector returns the tag filter matching every resource of a fleet.
func FleetSelector(fleetName string) map[string]string {
	return map[string]string{KeyFleet: fleetName}
}

// ControllerSelector returns the tag filter matching a fleet's controller.
func ControllerSelector(fleetName string) map[string]string {
	return map[string]string{KeyFleet: fleetName, KeyRole: RoleController}
}

// ReservationSelector returns the tag filter matching instances launched
// for a fleet, adopted or not.
func ReservationSelector(fleetName string) map[string]string {
	return map[string]string{KeyReservation: fleetName}
}
