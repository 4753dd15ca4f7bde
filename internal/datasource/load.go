package datasource

import (
	"context"

	"github.com/vanderheijden86/influgraph/pkg/aggregate"
	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// LoadGraph fetches the raw graph from svc and aggregates it.
func LoadGraph(ctx context.Context, svc Service) (model.Graph, aggregate.Stats, error) {
	stop := metrics.Timer(metrics.GraphFetch)
	raw, err := svc.FetchGraph(ctx)
	stop()
	if err != nil {
		return model.Graph{}, aggregate.Stats{}, err
	}
	g, stats := aggregate.AggregateWithStats(raw)
	return g, stats, nil
}
