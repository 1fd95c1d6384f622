// File: pkg/storage/gcp/metrics.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	usageWindow      = 72 * time.Hour
	totalBytesMetric = "storage.googleapis.com/storage/v2/total_bytes"
	bucketNameLabel  = "bucket_name"
)

// ErrMetricsNotFound means no bucket reported usage inside the window, which is normal
// for new buckets and projects
var ErrMetricsNotFound = errors.New("usage metrics not found in the monitoring window")

type timeSeriesIterator interface {
	Next() (*monitoringpb.TimeSeries, error)
}

// Queries Cloud Monitoring for the latest total bytes of every bucket in the project
func (g *GCPStorage) getAllBucketUsages(ctx context.Context) (map[string]int64, error) {
	g.logger.Debug("Fetching bucket usage from Cloud Monitoring", "project", g.projectID)

	client, err := monitoring.NewMetricClient(ctx, g.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	defer client.Close()

	return collectUsages(client.ListTimeSeries(ctx, usageRequest(g.projectID, time.Now())))
}

// One aggregated series per bucket, averaged over the window and summed across
// storage classes
func usageRequest(projectID string, now time.Time) *monitoringpb.ListTimeSeriesRequest {
	return &monitoringpb.ListTimeSeriesRequest{
		Name:   "projects/" + projectID,
		Filter: fmt.Sprintf(`metric.type="%s"`, totalBytesMetric),
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(now.Add(-usageWindow)),
			EndTime:   timestamppb.New(now),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(usageWindow),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_SUM,
			GroupByFields:      []string{"resource.labels." + bucketNameLabel},
		},
		View: monitoringpb.ListTimeSeriesRequest_FULL,
	}
}

// Drains the iterator into bucket name -> bytes. Series without a bucket label or
// without points are skipped; repeated buckets are added up.
func collectUsages(it timeSeriesIterator) (map[string]int64, error) {
	usages := make(map[string]int64)
	for {
		series, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading usage time series: %w", err)
		}

		bucketName := series.GetResource().GetLabels()[bucketNameLabel]
		points := series.GetPoints()
		if bucketName == "" || len(points) == 0 {
			continue
		}
		// Points come newest first
		usages[bucketName] += extractUsageValue(points[0].GetValue())
	}

	if len(usages) == 0 {
		return nil, ErrMetricsNotFound
	}
	return usages, nil
}

func extractUsageValue(value *monitoringpb.TypedValue) int64 {
	switch v := value.GetValue().(type) {
	case *monitoringpb.TypedValue_DoubleValue:
		return int64(math.Round(v.DoubleValue))
	case *monitoringpb.TypedValue_Int64Value:
		return v.Int64Value
	}
	return 0
}
