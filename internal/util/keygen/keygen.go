package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"golang.org/x/crypto/ssh"
)

// DefaultBits is the RSA key size used for generated fleet keys.
const DefaultBits = 4096

// KeyPair holds an SSH key pair.
type KeyPair struct {
	// PrivateKey is the PEM-encoded private key.
	PrivateKey []byte
	// PublicKey is the authorized_keys line, newline terminated.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the given bit size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(publicKey),
	}, nil
}

// FromPrivateKey derives the key pair from an existing private key.
func FromPrivateKey(privateKeyPEM []byte) (*KeyPair, error) {
	signer, err := ssh.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(signer.PublicKey()),
	}, nil
}

// LoadOrGenerate reads the private key at path. When the file does not
// exist a new pair is generated and written to path (0600) and path+".pub"
// (0644). The boolean reports whether a key was generated.
func LoadOrGenerate(path string, bits int) (*KeyPair, bool, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		kp, err := FromPrivateKey(data)
		if err != nil {
			return nil, false, fmt.Errorf("key file %s: %w", path, err)
		}
		return kp, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	kp, err := GenerateRSAKeyPair(bits)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := atomicwriter.WriteFile(path, kp.PrivateKey, 0o600); err != nil {
		return nil, false, fmt.Errorf("failed to write private key %s: %w", path, err)
	}
	if err := atomicwriter.WriteFile(path+".pub", kp.PublicKey, 0o644); err != nil {
		return nil, false, fmt.Errorf("failed to write public key %s.pub: %w", path, err)
	}
	return kp, true, nil
}
