// Package detector implements the multi-signal URL risk scoring engine.
//
// One Analyze call normalizes the URL, consults the known-scam gate, fans
// out four independent signal analyzers, and aggregates their scores into a
// single verdict. The pipeline is fail-open: Analyze always returns a
// Verdict, never an error.
package detector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"linkguard/internal/domain/models"
	"linkguard/pkg/logger"
)

// LookupFunc checks a host against the known-scam registry. A nil record
// with a nil error means the host is not listed.
type LookupFunc func(ctx context.Context, domain string) (*models.KnownScam, error)

// ExtraFunc is an optional pluggable scorer blended into the final score.
// A nil signal means the scorer has nothing to say about this URL.
type ExtraFunc func(ctx context.Context, url string) (*models.Signal, error)

// Options configures one Detector
type Options struct {
	// Threshold is the inclusive scam decision boundary
	Threshold float64

	// BaseWeight and ExtraWeight blend the base signal mean with the extra
	// signal when one is configured and produces a result
	BaseWeight  float64
	ExtraWeight float64

	FetchTimeout time.Duration
	TLSTimeout   time.Duration

	KnownScamLookup LookupFunc
	ExtraSignal     ExtraFunc
}

// Detector is the public entry point of the scoring engine. Safe for
// concurrent use; each Analyze call owns its own network resources.
type Detector struct {
	opts   Options
	logger *logger.Logger
}

// New creates a Detector, filling in defaults for unset options
func New(opts Options, log *logger.Logger) *Detector {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.7
	}
	if opts.BaseWeight <= 0 {
		opts.BaseWeight = 0.6
	}
	if opts.ExtraWeight <= 0 {
		opts.ExtraWeight = 0.4
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.TLSTimeout <= 0 {
		opts.TLSTimeout = 5 * time.Second
	}
	return &Detector{
		opts:   opts,
		logger: log.WithComponent("detector"),
	}
}

// Analyze runs the full detection pipeline for one URL. It always returns a
// Verdict: individual analyzer failures degrade to empty signals, and
// anything unexpected escaping an analyzer boundary produces the fail-open
// verdict instead of propagating.
func (d *Detector) Analyze(ctx context.Context, rawURL string) (verdict models.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("url", rawURL).Msg("analysis failed unexpectedly")
			verdict = failOpenVerdict()
		}
	}()

	in := newInput(rawURL)

	// Known-scam gate: the one place a single signal decides the verdict
	if rec := d.lookupKnownScam(ctx, in.Host); rec != nil {
		reasons := []string{fmt.Sprintf("Known scam domain: %s", rec.Domain)}
		if rec.ScamType != "" {
			label := rec.ScamType
			if rec.Verified {
				label += ", verified"
			}
			reasons = append(reasons, fmt.Sprintf("Reported scam type: %s", label))
		}
		return models.Verdict{
			IsScam:  true,
			Score:   1.0,
			Reasons: reasons,
			Breakdown: map[string]models.Signal{
				SignalKnownScam: {Score: 1.0, Reasons: reasons},
			},
		}
	}

	fetch := newFetcher(d.opts.FetchTimeout)
	defer fetch.close()

	// The four analyzers have no data dependency on each other; run them
	// concurrently, each with its own timeout. All must finish before
	// aggregation: a slow signal is waited out, a failed one scores zero.
	var urlSig, domainSig, contentSig, transportSig models.Signal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(d.runSignal(SignalURLPattern, &urlSig, func() models.Signal {
		return analyzeURLPatterns(in)
	}))
	g.Go(d.runSignal(SignalDomain, &domainSig, func() models.Signal {
		return analyzeDomain(in)
	}))
	g.Go(d.runSignal(SignalContent, &contentSig, func() models.Signal {
		return d.analyzeContent(gctx, in, fetch)
	}))
	g.Go(d.runSignal(SignalTransport, &transportSig, func() models.Signal {
		return d.analyzeTransport(gctx, in)
	}))
	g.Wait() // analyzers never return errors

	breakdown := map[string]models.Signal{
		SignalURLPattern: urlSig,
		SignalDomain:     domainSig,
		SignalContent:    contentSig,
		SignalTransport:  transportSig,
	}

	var sum float64
	var reasons []string
	for _, s := range []models.Signal{urlSig, domainSig, contentSig, transportSig} {
		sum += s.Score
		reasons = append(reasons, s.Reasons...)
	}
	base := sum / float64(len(breakdown))

	final := base
	if d.opts.ExtraSignal != nil {
		if extra := d.runExtraSignal(ctx, in.URL); extra != nil {
			final = base*d.opts.BaseWeight + extra.Score*d.opts.ExtraWeight
			reasons = append(reasons, extra.Reasons...)
			breakdown[SignalExtra] = *extra
		}
	}

	return models.Verdict{
		IsScam:    final >= d.opts.Threshold,
		Score:     round3(final),
		Reasons:   dedupeReasons(reasons),
		Breakdown: breakdown,
	}
}

// runSignal wraps one analyzer so a panic inside it is absorbed as an empty
// signal rather than taking down the scan.
func (d *Detector) runSignal(name string, dst *models.Signal, fn func() models.Signal) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Interface("panic", r).Str("signal", name).Msg("signal analyzer failed unexpectedly")
				*dst = models.Signal{}
			}
		}()
		*dst = fn()
		return nil
	}
}

// lookupKnownScam checks the exact host, then retries with a leading www.
// stripped. Lookup errors are treated as a miss so a registry outage never
// blocks scanning.
func (d *Detector) lookupKnownScam(ctx context.Context, host string) *models.KnownScam {
	if d.opts.KnownScamLookup == nil || host == "" {
		return nil
	}

	rec, err := d.opts.KnownScamLookup(ctx, host)
	if err != nil {
		d.logger.Warn().Err(err).Str("domain", host).Msg("known scam lookup failed")
		return nil
	}
	if rec != nil {
		return rec
	}

	if stripped, ok := strings.CutPrefix(host, "www."); ok {
		rec, err = d.opts.KnownScamLookup(ctx, stripped)
		if err != nil {
			d.logger.Warn().Err(err).Str("domain", stripped).Msg("known scam lookup failed")
			return nil
		}
		return rec
	}
	return nil
}

// runExtraSignal invokes the pluggable scorer, clamping its score and
// absorbing its failures
func (d *Detector) runExtraSignal(ctx context.Context, url string) *models.Signal {
	extra, err := d.opts.ExtraSignal(ctx, url)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", url).Msg("extra signal failed")
		return nil
	}
	if extra == nil {
		return nil
	}
	return &models.Signal{
		Score:   clamp(extra.Score, 0, 1),
		Reasons: extra.Reasons,
	}
}

func failOpenVerdict() models.Verdict {
	return models.Verdict{
		IsScam:  false,
		Score:   0.0,
		Reasons: []string{"Error during analysis"},
	}
}
