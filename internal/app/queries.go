package app

import (
	"context"

	"mikrodesk/internal/api"
	"mikrodesk/internal/config"
	"mikrodesk/internal/query"
)

// Cached resources. Each maps to one backend read scoped to the session.
const (
	ResStatus       = "status"
	ResSystemInfo   = "system-info"
	ResLogs         = "logs"
	ResHotspotLogs  = "hotspot-logs"
	ResTraffic      = "traffic"
	ResUserCount    = "user-count"
	ResTransactions = "transactions"
	ResUsers        = "users"
	ResProfiles     = "profiles"
	ResActiveUsers  = "active-users"
	ResHosts        = "hosts"
	ResServers      = "servers"
	ResIPPools      = "ip-pools"
	ResDNSName      = "dns-name"
)

// DashboardResources are refreshed together by the dashboard refresh key.
var DashboardResources = []string{
	ResStatus, ResSystemInfo, ResLogs, ResTraffic,
	ResHotspotLogs, ResTransactions, ResUserCount,
}

func registerQueries(c *query.Cache, client *api.Client, poll config.PollConfig) {
	telemetry := func(resource string, fetch query.FetchFunc) {
		c.Register(query.Query{Resource: resource, Fetch: fetch, Interval: poll.Telemetry})
	}
	static := func(resource string, fetch query.FetchFunc) {
		c.Register(query.Query{Resource: resource, Fetch: fetch})
	}

	telemetry(ResStatus, func(ctx context.Context, id string) (interface{}, error) {
		return client.Status(ctx, id)
	})
	telemetry(ResSystemInfo, func(ctx context.Context, id string) (interface{}, error) {
		return client.SystemInfo(ctx, id)
	})
	telemetry(ResLogs, func(ctx context.Context, id string) (interface{}, error) {
		return client.Logs(ctx, id)
	})
	telemetry(ResHotspotLogs, func(ctx context.Context, id string) (interface{}, error) {
		return client.HotspotLogs(ctx, id)
	})
	telemetry(ResTraffic, func(ctx context.Context, id string) (interface{}, error) {
		return client.Traffic(ctx, id)
	})
	telemetry(ResUserCount, func(ctx context.Context, id string) (interface{}, error) {
		return client.UserCount(ctx, id)
	})
	telemetry(ResUsers, func(ctx context.Context, id string) (interface{}, error) {
		return client.HotspotUsers(ctx, id)
	})
	telemetry(ResProfiles, func(ctx context.Context, id string) (interface{}, error) {
		return client.Profiles(ctx, id)
	})
	telemetry(ResActiveUsers, func(ctx context.Context, id string) (interface{}, error) {
		return client.ActiveUsers(ctx, id)
	})
	telemetry(ResHosts, func(ctx context.Context, id string) (interface{}, error) {
		return client.Hosts(ctx, id)
	})

	c.Register(query.Query{
		Resource: ResTransactions,
		Interval: poll.Report,
		Fetch: func(ctx context.Context, id string) (interface{}, error) {
			return client.Transactions(ctx, id)
		},
	})

	// Form lookups only change when an operator edits the router.
	static(ResServers, func(ctx context.Context, id string) (interface{}, error) {
		return client.Servers(ctx, id)
	})
	static(ResIPPools, func(ctx context.Context, id string) (interface{}, error) {
		return client.IPPools(ctx, id)
	})
	static(ResDNSName, func(ctx context.Context, id string) (interface{}, error) {
		return client.DNSName(ctx, id)
	})
}
