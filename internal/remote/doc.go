// Package remote inspects and manages a running fleet through its
// controller: files on the shared volume, fleet status and volume usage.
package remote
