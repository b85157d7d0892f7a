// Package s3 checks for and creates the fleet's object-storage bucket on
// any S3-compatible service (AWS S3, Hetzner Object Storage, MinIO).
package s3
