package testing

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
)

// Step is one observed state of a scripted instance.
type Step struct {
	State   fleet.InstanceState
	Address string
}

// TagCall records one TagInstances call.
type TagCall struct {
	IDs  []string
	Tags map[string]string
}

// PeerCall records one AllowPeers call.
type PeerCall struct {
	GroupID   string
	Addresses []string
}

type fakeInstance struct {
	inst     fleet.Instance
	steps    []Step
	cursor   int
	termLeft int
	dying    bool
}

type fakeVolume struct {
	vol          fleet.Volume
	creatingLeft int
	attachLeft   int
	attachTarget string
}

type fakeGroup struct {
	group fleet.SecurityGroup
	spec  provisioning.SecurityGroupSpec
	peers []string
}

// FakeCloud is an in-memory provisioning.Cloud. Instance and volume states
// advance each time they are described, which lets tests drive the
// launcher's and teardown's polls deterministically.
type FakeCloud struct {
	mu     sync.Mutex
	nextID int

	instances map[string]*fakeInstance
	volumes   map[string]*fakeVolume
	groups    map[string]*fakeGroup
	sshKeys   map[string][]byte

	// Script returns the states a newly launched instance reports on
	// successive DescribeInstances calls. The last step repeats. Defaults
	// to one pending step then running with an address.
	Script func(spec provisioning.LaunchSpec, index int, id string) []Step

	// TerminatePolls is the number of describes a terminated instance
	// still reports stopping.
	TerminatePolls int
	// NeverTerminate keeps terminated instances in stopping forever.
	NeverTerminate bool

	// VolumeCreatingPolls and AttachPolls delay volume state changes by
	// that many DescribeVolume calls.
	VolumeCreatingPolls int
	AttachPolls         int

	// Injected errors.
	LaunchErr        map[string]error
	DescribeErr      error
	ListInstancesErr error
	TagErr           error
	TerminateErr     error
	CreateVolumeErr  error
	AttachErr        error
	ListVolumesErr   error
	DeleteVolumeErr  map[string]error
	CreateGroupErr   error
	ListGroupsErr    error
	DeleteGroupErr   map[string]error
	AllowPeersErr    error
	EnsureSSHKeyErr  error

	// Call log.
	LaunchCalls     []provisioning.LaunchSpec
	DescribeCalls   [][]string
	TagCalls        []TagCall
	TerminateCalls  [][]string
	AttachCalls     [][2]string
	DeletedVolumes  []string
	DeletedGroups   []string
	PeerCalls       []PeerCall
	CreatedGroups   []provisioning.SecurityGroupSpec
	VolumeDescribes int
}

// NewFakeCloud creates an empty fake cloud.
func NewFakeCloud() *FakeCloud {
	return &FakeCloud{
		instances: make(map[string]*fakeInstance),
		volumes:   make(map[string]*fakeVolume),
		groups:    make(map[string]*fakeGroup),
		sshKeys:   make(map[string][]byte),
	}
}

var _ provisioning.Cloud = (*FakeCloud)(nil)

func (f *FakeCloud) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

// AddressFor returns the address the default script assigns to id.
func AddressFor(id string) string {
	return "192.0.2." + id
}

// AddInstance seeds an existing instance and returns its id.
func (f *FakeCloud) AddInstance(inst fleet.Instance) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst.ID == "" {
		inst.ID = f.newID()
	}
	if inst.Tags == nil {
		inst.Tags = map[string]string{}
	}
	f.instances[inst.ID] = &fakeInstance{inst: inst}
	return inst.ID
}

// AddVolume seeds an existing volume and returns its id.
func (f *FakeCloud) AddVolume(vol fleet.Volume) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vol.ID == "" {
		vol.ID = f.newID()
	}
	f.volumes[vol.ID] = &fakeVolume{vol: vol}
	return vol.ID
}

// AddSecurityGroup seeds an existing security group and returns its id.
func (f *FakeCloud) AddSecurityGroup(g fleet.SecurityGroup) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == "" {
		g.ID = f.newID()
	}
	f.groups[g.ID] = &fakeGroup{group: g}
	return g.ID
}

// Instance returns the current view of an instance.
func (f *FakeCloud) Instance(id string) (fleet.Instance, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fi, ok := f.instances[id]
	if !ok {
		return fleet.Instance{}, false
	}
	return fi.inst, true
}

// Volume returns the current view of a volume.
func (f *FakeCloud) Volume(id string) (fleet.Volume, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fv, ok := f.volumes[id]
	if !ok {
		return fleet.Volume{}, false
	}
	return fv.vol, true
}

// Peers returns the addresses allowed on a security group.
func (f *FakeCloud) Peers(groupID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[groupID]; ok {
		return slices.Clone(g.peers)
	}
	return nil
}

// SSHKey returns a registered public key.
func (f *FakeCloud) SSHKey(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.sshKeys[name]
	return k, ok
}

// LaunchInstances implements provisioning.Cloud.
func (f *FakeCloud) LaunchInstances(_ context.Context, spec provisioning.LaunchSpec) (provisioning.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LaunchCalls = append(f.LaunchCalls, spec)
	if err := f.LaunchErr[spec.Group]; err != nil {
		return provisioning.Reservation{}, err
	}

	res := provisioning.Reservation{Group: spec.Group}
	for i, name := range spec.Names {
		id := f.newID()
		steps := []Step{{State: fleet.StatePending}, {State: fleet.StateRunning, Address: AddressFor(id)}}
		if f.Script != nil {
			steps = f.Script(spec, i, id)
		}
		fi := &fakeInstance{
			inst: fleet.Instance{
				ID:           id,
				Name:         name,
				InstanceType: spec.InstanceType,
				State:        fleet.StatePending,
				Tags:         maps.Clone(spec.Tags),
				LaunchedAt:   time.Now(),
			},
			steps: steps,
		}
		if fi.inst.Tags == nil {
			fi.inst.Tags = map[string]string{}
		}
		f.instances[id] = fi
		res.InstanceIDs = append(res.InstanceIDs, id)
	}
	return res, nil
}

func (fi *fakeInstance) advance(f *FakeCloud) {
	if fi.dying {
		if f.NeverTerminate || fi.termLeft > 0 {
			fi.termLeft--
			fi.inst.State = fleet.StateStopping
			return
		}
		fi.inst.State = fleet.StateTerminated
		return
	}
	if len(fi.steps) == 0 {
		return
	}
	step := fi.steps[min(fi.cursor, len(fi.steps)-1)]
	fi.cursor++
	fi.inst.State = step.State
	fi.inst.Address = step.Address
}

// DescribeInstances implements provisioning.Cloud.
func (f *FakeCloud) DescribeInstances(_ context.Context, ids []string) ([]fleet.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DescribeCalls = append(f.DescribeCalls, slices.Clone(ids))
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	out := make([]fleet.Instance, 0, len(ids))
	for _, id := range ids {
		fi, ok := f.instances[id]
		if !ok {
			out = append(out, fleet.Instance{ID: id, State: fleet.StateTerminated})
			continue
		}
		fi.advance(f)
		out = append(out, cloneInstance(fi.inst))
	}
	return out, nil
}

// ListInstances implements provisioning.Cloud.
func (f *FakeCloud) ListInstances(_ context.Context, tags map[string]string, states ...fleet.InstanceState) ([]fleet.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListInstancesErr != nil {
		return nil, f.ListInstancesErr
	}

	var out []fleet.Instance
	for _, id := range f.sortedInstanceIDs() {
		fi := f.instances[id]
		if !matches(fi.inst.Tags, tags) {
			continue
		}
		if len(states) > 0 && !slices.Contains(states, fi.inst.State) {
			continue
		}
		out = append(out, cloneInstance(fi.inst))
	}
	return out, nil
}

// TagInstances implements provisioning.Cloud.
func (f *FakeCloud) TagInstances(_ context.Context, ids []string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TagCalls = append(f.TagCalls, TagCall{IDs: slices.Clone(ids), Tags: maps.Clone(tags)})
	if f.TagErr != nil {
		return f.TagErr
	}
	for _, id := range ids {
		fi, ok := f.instances[id]
		if !ok {
			return fmt.Errorf("instance %s not found", id)
		}
		maps.Copy(fi.inst.Tags, tags)
	}
	return nil
}

// TerminateInstances implements provisioning.Cloud.
func (f *FakeCloud) TerminateInstances(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TerminateCalls = append(f.TerminateCalls, slices.Clone(ids))
	if f.TerminateErr != nil {
		return f.TerminateErr
	}
	for _, id := range ids {
		if fi, ok := f.instances[id]; ok {
			fi.dying = true
			fi.termLeft = f.TerminatePolls
			fi.inst.State = fleet.StateStopping
		}
	}
	return nil
}

// CreateVolume implements provisioning.Cloud.
func (f *FakeCloud) CreateVolume(_ context.Context, spec provisioning.VolumeSpec) (fleet.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateVolumeErr != nil {
		return fleet.Volume{}, f.CreateVolumeErr
	}
	vol := fleet.Volume{
		ID:     f.newID(),
		Name:   spec.Name,
		SizeGB: spec.SizeGB,
		Status: fleet.VolumeCreating,
		Tags:   maps.Clone(spec.Tags),
	}
	f.volumes[vol.ID] = &fakeVolume{vol: vol, creatingLeft: f.VolumeCreatingPolls}
	return vol, nil
}

// DescribeVolume implements provisioning.Cloud.
func (f *FakeCloud) DescribeVolume(_ context.Context, id string) (fleet.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.VolumeDescribes++
	fv, ok := f.volumes[id]
	if !ok {
		return fleet.Volume{}, fmt.Errorf("volume %s not found", id)
	}
	if fv.vol.Status == fleet.VolumeCreating {
		if fv.creatingLeft > 0 {
			fv.creatingLeft--
		} else {
			fv.vol.Status = fleet.VolumeAvailable
		}
	}
	if fv.attachTarget != "" && fv.vol.AttachedTo == "" {
		if fv.attachLeft > 0 {
			fv.attachLeft--
		} else {
			fv.vol.AttachedTo = fv.attachTarget
		}
	}
	return fv.vol, nil
}

// AttachVolume implements provisioning.Cloud.
func (f *FakeCloud) AttachVolume(_ context.Context, volumeID, instanceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.AttachCalls = append(f.AttachCalls, [2]string{volumeID, instanceID})
	if f.AttachErr != nil {
		return f.AttachErr
	}
	fv, ok := f.volumes[volumeID]
	if !ok {
		return fmt.Errorf("volume %s not found", volumeID)
	}
	fv.attachTarget = instanceID
	fv.attachLeft = f.AttachPolls
	return nil
}

// ListVolumes implements provisioning.Cloud.
func (f *FakeCloud) ListVolumes(_ context.Context, tags map[string]string) ([]fleet.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListVolumesErr != nil {
		return nil, f.ListVolumesErr
	}
	var out []fleet.Volume
	for _, id := range sortedKeys(f.volumes) {
		if matches(f.volumes[id].vol.Tags, tags) {
			out = append(out, f.volumes[id].vol)
		}
	}
	return out, nil
}

// DeleteVolume implements provisioning.Cloud.
func (f *FakeCloud) DeleteVolume(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DeletedVolumes = append(f.DeletedVolumes, id)
	if err := f.DeleteVolumeErr[id]; err != nil {
		return err
	}
	delete(f.volumes, id)
	return nil
}

// CreateSecurityGroup implements provisioning.Cloud.
func (f *FakeCloud) CreateSecurityGroup(_ context.Context, spec provisioning.SecurityGroupSpec) (fleet.SecurityGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreatedGroups = append(f.CreatedGroups, spec)
	if f.CreateGroupErr != nil {
		return fleet.SecurityGroup{}, f.CreateGroupErr
	}
	for id, g := range f.groups {
		if g.group.Name == spec.Name {
			delete(f.groups, id)
		}
	}
	g := fleet.SecurityGroup{ID: f.newID(), Name: spec.Name, Tags: maps.Clone(spec.Tags)}
	f.groups[g.ID] = &fakeGroup{group: g, spec: spec}
	return g, nil
}

// AllowPeers implements provisioning.Cloud.
func (f *FakeCloud) AllowPeers(_ context.Context, groupID string, addresses []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PeerCalls = append(f.PeerCalls, PeerCall{GroupID: groupID, Addresses: slices.Clone(addresses)})
	if f.AllowPeersErr != nil {
		return f.AllowPeersErr
	}
	g, ok := f.groups[groupID]
	if !ok {
		return fmt.Errorf("security group %s not found", groupID)
	}
	g.peers = slices.Clone(addresses)
	return nil
}

// ListSecurityGroups implements provisioning.Cloud.
func (f *FakeCloud) ListSecurityGroups(_ context.Context, tags map[string]string) ([]fleet.SecurityGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListGroupsErr != nil {
		return nil, f.ListGroupsErr
	}
	var out []fleet.SecurityGroup
	for _, id := range sortedKeys(f.groups) {
		if matches(f.groups[id].group.Tags, tags) {
			out = append(out, f.groups[id].group)
		}
	}
	return out, nil
}

// DeleteSecurityGroup implements provisioning.Cloud.
func (f *FakeCloud) DeleteSecurityGroup(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DeletedGroups = append(f.DeletedGroups, id)
	if err := f.DeleteGroupErr[id]; err != nil {
		return err
	}
	delete(f.groups, id)
	return nil
}

// EnsureSSHKey implements provisioning.Cloud.
func (f *FakeCloud) EnsureSSHKey(_ context.Context, name string, publicKey []byte, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.EnsureSSHKeyErr != nil {
		return f.EnsureSSHKeyErr
	}
	if _, ok := f.sshKeys[name]; !ok {
		f.sshKeys[name] = slices.Clone(publicKey)
	}
	return nil
}

func (f *FakeCloud) sortedInstanceIDs() []string {
	return sortedKeys(f.instances)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, errA := strconv.Atoi(a)
		bi, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return ai - bi
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return keys
}

func matches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func cloneInstance(i fleet.Instance) fleet.Instance {
	i.Tags = maps.Clone(i.Tags)
	return i
}
