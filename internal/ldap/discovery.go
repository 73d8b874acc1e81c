package ldap

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ServerInfo is a domain controller found through DNS.
type ServerInfo struct {
	Host     string
	Port     int
	UseTLS   bool
	Priority int
	Weight   int
}

// Address returns host:port, the form expected by Config.Server.
func (s *ServerInfo) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SRVResolver is the part of *net.Resolver used for discovery.
type SRVResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// SRVDiscovery handles DNS SRV record discovery for domain controllers.
type SRVDiscovery struct {
	resolver SRVResolver
}

// NewSRVDiscovery creates a discovery instance. A nil resolver selects net.DefaultResolver.
func NewSRVDiscovery(resolver SRVResolver) *SRVDiscovery {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &SRVDiscovery{resolver: resolver}
}

// DiscoverServers looks up _ldaps._tcp.<domain> when useTLS is set and
// _ldap._tcp.<domain> otherwise, and returns the targets in RFC 2782 order.
func (d *SRVDiscovery) DiscoverServers(ctx context.Context, domain string, useTLS bool) ([]*ServerInfo, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}

	service := "_ldap._tcp." + domain
	if useTLS {
		service = "_ldaps._tcp." + domain
	}

	start := time.Now()
	tflog.SubsystemDebug(ctx, Subsystem, "Looking up SRV records for service", map[string]any{
		"service": service,
	})

	_, records, err := d.resolver.LookupSRV(ctx, "", "", service)
	if err != nil {
		tflog.SubsystemDebug(ctx, Subsystem, "SRV lookup failed", map[string]any{
			"service":  service,
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("SRV lookup failed for %s: %w", service, err)
	}

	var servers []*ServerInfo
	for _, srv := range records {
		if srv == nil {
			continue
		}
		server := &ServerInfo{
			Host:     strings.TrimSuffix(srv.Target, "."),
			Port:     int(srv.Port),
			UseTLS:   useTLS,
			Priority: int(srv.Priority),
			Weight:   int(srv.Weight),
		}
		if err := ValidateServerInfo(server); err != nil {
			tflog.SubsystemWarn(ctx, Subsystem, "Ignoring invalid SRV record", map[string]any{
				"service": service,
				"error":   err.Error(),
			})
			continue
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no SRV records found for %s", service)
	}

	sortServersByPriority(servers)

	tflog.SubsystemDebug(ctx, Subsystem, "Server discovery completed", map[string]any{
		"service":      service,
		"duration":     time.Since(start).String(),
		"server_count": len(servers),
		"selected":     servers[0].Address(),
	})
	return servers, nil
}

// sortServersByPriority sorts servers by priority and weight according to RFC 2782.
func sortServersByPriority(servers []*ServerInfo) {
	sort.SliceStable(servers, func(i, j int) bool {
		if servers[i].Priority != servers[j].Priority {
			return servers[i].Priority < servers[j].Priority
		}
		// Within same priority, heavier targets first
		return servers[i].Weight > servers[j].Weight
	})
}

// ValidateServerInfo validates server information.
func ValidateServerInfo(server *ServerInfo) error {
	if server == nil {
		return fmt.Errorf("server info cannot be nil")
	}

	if server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if server.Port <= 0 || server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", server.Port)
	}

	if server.Priority < 0 {
		return fmt.Errorf("priority cannot be negative: %d", server.Priority)
	}

	if server.Weight < 0 {
		return fmt.Errorf("weight cannot be negative: %d", server.Weight)
	}

	return nil
}
