package wx

import (
	"context"
	"fmt"
	"time"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/metrics"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// SourceClient is the transport surface the aggregator consumes. The HTTP
// client satisfies it; tests substitute stubs.
type SourceClient interface {
	FetchMETAR(ctx context.Context, airportCode string) (*METARResponse, error)
	FetchTAF(ctx context.Context, airportCode string) (*TAFResponse, error)
	FetchPIREPs(ctx context.Context, lat, lon float64) ([]PIREPResponse, error)
	FetchAdvisories(ctx context.Context) ([]AirSigmetResponse, error)
}

// HistoryRecorder receives every live snapshot for historical averaging.
// Recording failures are logged, never propagated.
type HistoryRecorder interface {
	RecordSnapshot(ctx context.Context, snap WeatherSnapshot) error
}

// Aggregator merges the four source adapters into one snapshot per airport
type Aggregator struct {
	client   SourceClient
	airports *airports.Store
	synth    *Synthesizer
	history  HistoryRecorder
	logger   *logger.Logger
}

// NewAggregator creates a weather aggregator. history may be nil.
func NewAggregator(client SourceClient, store *airports.Store, synth *Synthesizer, history HistoryRecorder, log *logger.Logger) *Aggregator {
	return &Aggregator{
		client:   client,
		airports: store,
		synth:    synth,
		history:  history,
		logger:   log.Named("wx-aggregator"),
	}
}

// Snapshot fetches all sources for an airport concurrently and merges them.
// Unknown airport codes fail; partial source failures degrade the quality
// score; total source failure substitutes a synthesized observation.
func (a *Aggregator) Snapshot(ctx context.Context, icao string) (WeatherSnapshot, error) {
	started := time.Now()
	defer func() {
		metrics.SnapshotLatency.Observe(time.Since(started).Seconds())
	}()

	info, err := a.airports.Info(icao)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	results := a.fetchAll(ctx, info)
	snap := a.merge(info, results, time.Now().UTC())

	if a.history != nil && snap.DataQuality > 0 {
		if err := a.history.RecordSnapshot(ctx, snap); err != nil {
			a.logger.Warn("Failed to record snapshot history",
				logger.String("airport", snap.Airport),
				logger.Error(err))
		}
	}
	return snap, nil
}

// fetchAll runs the four source adapters concurrently
// goroutine-per-source with a collection channel
func (a *Aggregator) fetchAll(ctx context.Context, info airports.Airport) []FetchResult {
	results := make(chan FetchResult, 4)

	go func() {
		data, err := a.client.FetchMETAR(ctx, info.ICAO)
		results <- FetchResult{Kind: KindMETAR, Data: data, Err: err}
	}()
	go func() {
		data, err := a.client.FetchTAF(ctx, info.ICAO)
		results <- FetchResult{Kind: KindTAF, Data: data, Err: err}
	}()
	go func() {
		data, err := a.client.FetchPIREPs(ctx, info.Latitude, info.Longitude)
		results <- FetchResult{Kind: KindPIREP, Data: data, Err: err}
	}()
	go func() {
		data, err := a.client.FetchAdvisories(ctx)
		results <- FetchResult{Kind: KindSIGMET, Data: data, Err: err}
	}()

	collected := make([]FetchResult, 0, 4)
	for i := 0; i < 4; i++ {
		r := <-results
		status := "ok"
		if r.Err != nil {
			status = "error"
		}
		metrics.SourceFetchesTotal.WithLabelValues(string(r.Kind), status).Inc()
		collected = append(collected, r)
	}
	return collected
}

// merge folds fetch results into one snapshot. The METAR carries the
// numeric observation, so its success is weighted double in the quality
// score.
func (a *Aggregator) merge(info airports.Airport, results []FetchResult, now time.Time) WeatherSnapshot {
	snap := WeatherSnapshot{
		Airport:        info.ICAO,
		Latitude:       info.Latitude,
		Longitude:      info.Longitude,
		TemperatureC:   defaultTemperatureC,
		DewpointC:      defaultTemperatureC - 5,
		WindSpeedKt:    defaultWindSpeedKt,
		WindDirDeg:     defaultWindDirDeg,
		VisibilitySM:   defaultVisibilitySM,
		PressureInHg:   defaultPressureInHg,
		FlightCategory: CategoryVFR,
		ObservedAt:     now,
	}

	var weightTotal, weightOK float64
	for _, r := range results {
		weight := 1.0
		if r.Kind == KindMETAR {
			weight = 2.0
		}
		weightTotal += weight

		if r.Err != nil {
			snap.FetchErrors = append(snap.FetchErrors,
				fmt.Sprintf("%s: %v", r.Kind, r.Err))
			continue
		}
		weightOK += weight

		switch r.Kind {
		case KindMETAR:
			if m, ok := r.Data.(*METARResponse); ok && m != nil {
				snapshotFromMETAR(&snap, m)
				snap.Sources = append(snap.Sources, SourceMETAR)
			}
		case KindTAF:
			if t, ok := r.Data.(*TAFResponse); ok && t != nil {
				snap.RawTAF = t.RawTAF
				snap.Sources = append(snap.Sources, SourceTAF)
			}
		case KindPIREP:
			if reports, ok := r.Data.([]PIREPResponse); ok && len(reports) > 0 {
				for _, p := range reports {
					snap.PilotReports = append(snap.PilotReports, pilotReportFrom(p))
				}
				snap.Sources = append(snap.Sources, SourcePIREP)
			}
		case KindSIGMET:
			if advisories, ok := r.Data.([]AirSigmetResponse); ok {
				for _, raw := range advisories {
					adv := advisoryFrom(raw)
					if adv.ActiveNow(now) {
						snap.Advisories = append(snap.Advisories, adv)
					}
				}
				if len(snap.Advisories) > 0 {
					snap.Sources = append(snap.Sources, SourceSIGMET)
				}
			}
		}
	}

	if weightOK == 0 {
		a.logger.Warn("All weather sources failed, synthesizing observation",
			logger.String("airport", info.ICAO))
		metrics.FallbackSynthesesTotal.Inc()
		fallback := a.synth.Generate(info.ICAO, info.Latitude, info.Longitude, now)
		fallback.FetchErrors = snap.FetchErrors
		return fallback
	}

	snap.DataQuality = weightOK / weightTotal
	return snap
}
