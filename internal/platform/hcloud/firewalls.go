package hcloud

import (
	"context"
	"fmt"
	"maps"
	"net"
	"slices"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
)

// peerRuleDescription marks the rules managed by AllowPeers.
const peerRuleDescription = "fleet-peers"

// CreateSecurityGroup creates a firewall applied to every server matching
// the requested selector. An existing firewall of the same name is deleted
// first.
func (c *RealClient) CreateSecurityGroup(ctx context.Context, spec provisioning.SecurityGroupSpec) (fleet.SecurityGroup, error) {
	existing, _, err := c.client.Firewall.Get(ctx, spec.Name)
	if err != nil {
		return fleet.SecurityGroup{}, fmt.Errorf("failed to get firewall: %w", err)
	}
	if existing != nil {
		c.log.Info("replacing existing firewall", "name", spec.Name, "id", existing.ID)
		if err := c.deleteFirewall(ctx, existing.ID); err != nil {
			return fleet.SecurityGroup{}, err
		}
	}

	rules, err := toFirewallRules(spec.Rules)
	if err != nil {
		return fleet.SecurityGroup{}, err
	}

	opts := hcloud.FirewallCreateOpts{
		Name:   spec.Name,
		Labels: maps.Clone(spec.Tags),
		Rules:  rules,
	}
	if len(spec.Selector) > 0 {
		opts.ApplyTo = []hcloud.FirewallResource{{
			Type:          hcloud.FirewallResourceTypeLabelSelector,
			LabelSelector: &hcloud.FirewallResourceLabelSelector{Selector: labelSelector(spec.Selector)},
		}}
	}

	res, _, err := c.client.Firewall.Create(ctx, opts)
	if err != nil {
		return fleet.SecurityGroup{}, fmt.Errorf("failed to create firewall %s: %w", spec.Name, err)
	}
	if err := waitForActions(ctx, c.client, res.Actions...); err != nil {
		return fleet.SecurityGroup{}, fmt.Errorf("failed to wait for firewall %s: %w", spec.Name, err)
	}
	return toSecurityGroup(res.Firewall), nil
}

// AllowPeers replaces the peer rules of a firewall so that the given
// addresses may reach each other on any port.
func (c *RealClient) AllowPeers(ctx context.Context, groupID string, addresses []string) error {
	n, err := parseID("firewall", groupID)
	if err != nil {
		return err
	}
	fw, _, err := c.client.Firewall.GetByID(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to get firewall %s: %w", groupID, err)
	}
	if fw == nil {
		return notFound("firewall", groupID)
	}

	sources, err := hostNets(addresses)
	if err != nil {
		return err
	}

	rules := slices.DeleteFunc(slices.Clone(fw.Rules), func(r hcloud.FirewallRule) bool {
		return r.Description != nil && *r.Description == peerRuleDescription
	})
	if len(sources) > 0 {
		for _, proto := range []hcloud.FirewallRuleProtocol{hcloud.FirewallRuleProtocolTCP, hcloud.FirewallRuleProtocolUDP} {
			rules = append(rules, hcloud.FirewallRule{
				Direction:   hcloud.FirewallRuleDirectionIn,
				Protocol:    proto,
				Port:        hcloud.Ptr("any"),
				SourceIPs:   sources,
				Description: hcloud.Ptr(peerRuleDescription),
			})
		}
		rules = append(rules, hcloud.FirewallRule{
			Direction:   hcloud.FirewallRuleDirectionIn,
			Protocol:    hcloud.FirewallRuleProtocolICMP,
			SourceIPs:   sources,
			Description: hcloud.Ptr(peerRuleDescription),
		})
	}

	actions, _, err := c.client.Firewall.SetRules(ctx, fw, hcloud.FirewallSetRulesOpts{Rules: rules})
	if err != nil {
		return fmt.Errorf("failed to set rules on firewall %s: %w", groupID, err)
	}
	if err := waitForActions(ctx, c.client, actions...); err != nil {
		return fmt.Errorf("failed to wait for firewall %s rules: %w", groupID, err)
	}
	return nil
}

// ListSecurityGroups returns firewalls carrying every tag.
func (c *RealClient) ListSecurityGroups(ctx context.Context, tags map[string]string) ([]fleet.SecurityGroup, error) {
	fws, err := c.client.Firewall.AllWithOpts(ctx, hcloud.FirewallListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector(tags)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list firewalls: %w", err)
	}
	out := make([]fleet.SecurityGroup, 0, len(fws))
	for _, fw := range fws {
		out = append(out, toSecurityGroup(fw))
	}
	return out, nil
}

// DeleteSecurityGroup deletes a firewall, retrying while it is still
// applied to servers that are shutting down.
func (c *RealClient) DeleteSecurityGroup(ctx context.Context, id string) error {
	n, err := parseID("firewall", id)
	if err != nil {
		return err
	}
	return c.deleteFirewall(ctx, n)
}

func (c *RealClient) deleteFirewall(ctx context.Context, id int64) error {
	return (&DeleteOperation[*hcloud.Firewall]{
		ID:           id,
		ResourceType: "firewall",
		Get:          c.client.Firewall.GetByID,
		Delete: func(ctx context.Context, fw *hcloud.Firewall) error {
			_, err := c.client.Firewall.Delete(ctx, fw)
			return err
		},
		Exists: func(fw *hcloud.Firewall) bool { return fw != nil },
	}).Execute(ctx, c)
}

func toFirewallRules(rules []provisioning.IngressRule) ([]hcloud.FirewallRule, error) {
	out := make([]hcloud.FirewallRule, 0, len(rules))
	for _, r := range rules {
		sources, err := parseCIDRs(r.Sources)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Description, err)
		}
		rule := hcloud.FirewallRule{
			Direction: hcloud.FirewallRuleDirectionIn,
			Protocol:  hcloud.FirewallRuleProtocol(r.Protocol),
			SourceIPs: sources,
		}
		if r.Description != "" {
			rule.Description = hcloud.Ptr(r.Description)
		}
		if r.Protocol != provisioning.ProtocolICMP && r.Port != "" {
			rule.Port = hcloud.Ptr(r.Port)
		}
		out = append(out, rule)
	}
	return out, nil
}

func parseCIDRs(cidrs []string) ([]net.IPNet, error) {
	out := make([]net.IPNet, 0, len(cidrs))
	for _, s := range cidrs {
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("invalid source %q: %w", s, err)
		}
		out = append(out, *n)
	}
	return out, nil
}

// hostNets converts addresses to single-host networks.
func hostNets(addresses []string) ([]net.IPNet, error) {
	out := make([]net.IPNet, 0, len(addresses))
	for _, a := range addresses {
		ip := net.ParseIP(a)
		if ip == nil {
			return nil, fmt.Errorf("invalid peer address %q", a)
		}
		if v4 := ip.To4(); v4 != nil {
			out = append(out, net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)})
			continue
		}
		out = append(out, net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)})
	}
	return out, nil
}

func toSecurityGroup(fw *hcloud.Firewall) fleet.SecurityGroup {
	return fleet.SecurityGroup{
		ID:   formatID(fw.ID),
		Name: fw.Name,
		Tags: maps.Clone(fw.Labels),
	}
}
