package hcloud

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClient_EnsureSSHKey(t *testing.T) {
	tests := []struct {
		name        string
		existing    []schema.SSHKey
		publicKey   string
		wantCreate  bool
		wantErrText string
	}{
		{
			name:       "absent key is created",
			publicKey:  "ssh-rsa AAAA fleetctl\n",
			wantCreate: true,
		},
		{
			name:      "matching key is kept",
			existing:  []schema.SSHKey{{ID: 1, Name: "fleetctl", PublicKey: "ssh-rsa AAAA other-comment"}},
			publicKey: "ssh-rsa AAAA fleetctl\n",
		},
		{
			name:        "different key under the same name",
			existing:    []schema.SSHKey{{ID: 1, Name: "fleetctl", PublicKey: "ssh-rsa BBBB"}},
			publicKey:   "ssh-rsa AAAA",
			wantErrText: "exists with a different public key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			var created atomic.Int32
			var body map[string]any
			ts.handleFunc("GET /ssh_keys", func(w http.ResponseWriter, _ *http.Request) {
				keys := tt.existing
				if keys == nil {
					keys = []schema.SSHKey{}
				}
				jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{SSHKeys: keys})
			})
			ts.handleFunc("POST /ssh_keys", func(w http.ResponseWriter, r *http.Request) {
				created.Add(1)
				body = decodeBody(t, r)
				jsonResponse(w, http.StatusCreated, schema.SSHKeyCreateResponse{
					SSHKey: schema.SSHKey{ID: 2, Name: "fleetctl", PublicKey: "ssh-rsa AAAA"},
				})
			})

			client := ts.realClient()
			err := client.EnsureSSHKey(context.Background(), "fleetctl", []byte(tt.publicKey), map[string]string{"k": "v"})
			if tt.wantErrText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrText)
				return
			}
			require.NoError(t, err)
			if tt.wantCreate {
				assert.Equal(t, int32(1), created.Load())
				assert.Equal(t, "ssh-rsa AAAA fleetctl", body["public_key"])
			} else {
				assert.Zero(t, created.Load())
			}
		})
	}
}
