/*
Package observability exposes generator activity as Prometheus metrics.

Metrics are recorded through domain.Hooks, so they can be chained with any
other hook set:

	m := observability.NewMetrics(prometheus.NewRegistry())
	gen, _ := aime.New(aime.WithOracle(o), aime.WithHooks(m.Hooks()))
*/
package observability
