// Package metrics holds the prometheus collectors for the estimating
// pipeline. Collectors register on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BOMItemsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "bom_items_generated_total",
		Help:      "BOM line items persisted, by trade.",
	}, []string{"trade"})

	BOMFeatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "bom_feature_failures_total",
		Help:      "Takeoff features whose line items could not be persisted.",
	})

	RegistryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "material_registry_failures_total",
		Help:      "Material registry resolutions that failed; the line item was saved without a material link.",
	})

	QuotesParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "quotes_parsed_total",
		Help:      "Vendor quotes parsed, by parse method.",
	}, []string{"method"})

	QuoteParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "quote_parse_failures_total",
		Help:      "Vendor responses neither parse tier could read.",
	})

	QuoteLinesUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "quote_lines_unmatched_total",
		Help:      "Parsed quote lines that matched no RFQ item.",
	})

	VendorPricesUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "vendor_prices_upserted_total",
		Help:      "Vendor material price cache writes.",
	})

	RFQsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "rfqs_sent_total",
		Help:      "RFQ emails handed to the mail transport.",
	})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidprep",
		Name:      "api_requests_total",
		Help:      "JSON API requests, by route pattern and status code.",
	}, []string{"route", "status"})

	BOMGenerationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bidprep",
		Name:      "bom_generation_seconds",
		Help:      "Wall time of one BOM generation run.",
		Buckets:   prometheus.DefBuckets,
	})
)
