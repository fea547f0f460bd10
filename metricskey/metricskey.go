package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsAPIRequestsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_openproject_requests_succeeded",
		Help:         "stats_openproject_requests_succeeded provides total OpenProject API requests succeeded",
		RequiredTags: []string{"method", "endpoint"},
	}

	StatsAPIRequestsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_openproject_requests_failed",
		Help:         "stats_openproject_requests_failed provides total OpenProject API requests failed",
		RequiredTags: []string{"method", "endpoint"},
	}

	StatsAPIRequestsRetried = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_openproject_requests_retried",
		Help:         "stats_openproject_requests_retried provides total OpenProject API requests retried",
		RequiredTags: []string{"method", "endpoint"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsCatalogCacheHits = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_catalog_cache_hits",
		Help:         "stats_catalog_cache_hits provides total catalog cache hits",
		RequiredTags: []string{"catalog"},
	}

	StatsCatalogCacheMisses = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_catalog_cache_misses",
		Help:         "stats_catalog_cache_misses provides total catalog cache misses",
		RequiredTags: []string{"catalog"},
	}
)

// Perf
var (
	PerfAPIRequest = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_openproject_request",
		Help:         "perf_openproject_request provides duration of OpenProject API request",
		RequiredTags: []string{"method"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAPIRequest,
	&PerfToolCall,
	&StatsAPIRequestsFailed,
	&StatsAPIRequestsRetried,
	&StatsAPIRequestsSucceeded,
	&StatsCatalogCacheHits,
	&StatsCatalogCacheMisses,
	&StatsToolCallsFailed,
	&StatsToolCallsSucceeded,
}
