// Package keygen generates and loads the SSH key pair used to reach fleet
// instances.
//
// Private keys are PEM-encoded PKCS#1; public keys are in OpenSSH
// authorized_keys format, ready to register with the cloud provider.
package keygen
