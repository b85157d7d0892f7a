package naming

import "fmt"

// Controller is the controller instance name.
func Controller(fleet string) string {
	return fmt.Sprintf("%s-controller", fleet)
}

// Node is the name of the index-th (1-based) instance of a worker group.
func Node(fleet, group string, index int) string {
	return fmt.Sprintf("%s-node-%s-%d", fleet, group, index)
}

// SecurityGroup is the fleet's security group name.
func SecurityGroup(fleet string) string {
	return fmt.Sprintf("%s-sg", fleet)
}

// SharedVolume is the name of the volume attached to the controller.
func SharedVolume(fleet string) string {
	return fmt.Sprintf("%s-shared", fleet)
}
