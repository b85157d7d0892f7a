// Package infrastructure prepares the account-level resources a fleet
// needs before any instance is launched: the SSH key, the object-storage
// bucket and the fleet security group.
package infrastructure
