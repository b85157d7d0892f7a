// Package naming derives provider resource names from the fleet name.
package naming
