package detector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkguard/internal/domain/models"
)

// lookupFor returns a LookupFunc backed by a fixed domain set, counting calls
func lookupFor(calls *atomic.Int64, domains map[string]*models.KnownScam) LookupFunc {
	return func(ctx context.Context, domain string) (*models.KnownScam, error) {
		if calls != nil {
			calls.Add(1)
		}
		return domains[domain], nil
	}
}

func TestAnalyze_KnownScamShortCircuit(t *testing.T) {
	var lookupCalls, extraCalls atomic.Int64
	d := testDetector(Options{
		KnownScamLookup: lookupFor(&lookupCalls, map[string]*models.KnownScam{
			"scam.test": {Domain: "scam.test", ScamType: "phishing", Verified: true},
		}),
		ExtraSignal: func(ctx context.Context, url string) (*models.Signal, error) {
			extraCalls.Add(1)
			return &models.Signal{Score: 0.1}, nil
		},
	})

	verdict := d.Analyze(context.Background(), "https://scam.test/login")

	assert.True(t, verdict.IsScam)
	assert.Equal(t, 1.0, verdict.Score)
	assert.Equal(t, []string{
		"Known scam domain: scam.test",
		"Reported scam type: phishing, verified",
	}, verdict.Reasons)
	require.Contains(t, verdict.Breakdown, SignalKnownScam)
	assert.Equal(t, 1.0, verdict.Breakdown[SignalKnownScam].Score)

	// the gate decides alone: no analyzer or extra signal runs
	assert.Equal(t, int64(1), lookupCalls.Load())
	assert.Zero(t, extraCalls.Load())
}

func TestAnalyze_KnownScamWWWFallback(t *testing.T) {
	d := testDetector(Options{
		KnownScamLookup: lookupFor(nil, map[string]*models.KnownScam{
			"scam.test": {Domain: "scam.test"},
		}),
	})

	verdict := d.Analyze(context.Background(), "https://www.scam.test")

	assert.True(t, verdict.IsScam)
	assert.Equal(t, 1.0, verdict.Score)
}

func TestAnalyze_GateErrorIsAMiss(t *testing.T) {
	d := testDetector(Options{
		KnownScamLookup: func(ctx context.Context, domain string) (*models.KnownScam, error) {
			return nil, errors.New("registry unavailable")
		},
	})

	// .invalid never resolves, so the network analyzers degrade to zero
	verdict := d.Analyze(context.Background(), "http://broken.invalid")

	assert.False(t, verdict.IsScam)
	assert.NotContains(t, verdict.Reasons, "Error during analysis")
}

func TestAnalyze_ThresholdIsInclusive(t *testing.T) {
	// "http://" yields exactly one non-zero signal: the 0.5 no-HTTPS
	// penalty. base = 0.5/4 = 0.125, representable exactly.
	d := testDetector(Options{Threshold: 0.125})

	verdict := d.Analyze(context.Background(), "http://")

	assert.True(t, verdict.IsScam)
	assert.Equal(t, 0.125, verdict.Score)
}

func TestAnalyze_NoHTTPSPenalty(t *testing.T) {
	verdict := testDetector(Options{}).Analyze(context.Background(), "http://")

	require.Contains(t, verdict.Breakdown, SignalTransport)
	assert.Equal(t, 0.5, verdict.Breakdown[SignalTransport].Score)
	assert.Contains(t, verdict.Reasons, "No HTTPS/SSL certificate")
}

func TestAnalyze_IPLiteralScenario(t *testing.T) {
	d := testDetector(Options{FetchTimeout: 500 * time.Millisecond})

	verdict := d.Analyze(context.Background(), "http://192.168.1.1/login")

	require.Contains(t, verdict.Breakdown, SignalURLPattern)
	assert.Greater(t, verdict.Breakdown[SignalURLPattern].Score, 0.0)
	assert.Contains(t, verdict.Reasons, "Suspicious URL pattern detected")
}

func TestAnalyze_ExtraSignalBlend(t *testing.T) {
	d := testDetector(Options{
		ExtraSignal: func(ctx context.Context, url string) (*models.Signal, error) {
			return &models.Signal{Score: 1.0, Reasons: []string{"Model flagged this URL"}}, nil
		},
	})

	verdict := d.Analyze(context.Background(), "http://")

	// base 0.125, blended 0.125*0.6 + 1.0*0.4
	assert.InDelta(t, 0.475, verdict.Score, 1e-9)
	assert.Contains(t, verdict.Reasons, "Model flagged this URL")
	require.Contains(t, verdict.Breakdown, SignalExtra)
	assert.Equal(t, 1.0, verdict.Breakdown[SignalExtra].Score)
}

func TestAnalyze_ExtraSignalAbsent(t *testing.T) {
	d := testDetector(Options{
		ExtraSignal: func(ctx context.Context, url string) (*models.Signal, error) {
			return nil, nil
		},
	})

	verdict := d.Analyze(context.Background(), "http://")

	assert.Equal(t, 0.125, verdict.Score)
	assert.NotContains(t, verdict.Breakdown, SignalExtra)
}

func TestAnalyze_ExtraSignalErrorIgnored(t *testing.T) {
	d := testDetector(Options{
		ExtraSignal: func(ctx context.Context, url string) (*models.Signal, error) {
			return nil, errors.New("model unavailable")
		},
	})

	verdict := d.Analyze(context.Background(), "http://")

	assert.Equal(t, 0.125, verdict.Score)
	assert.NotContains(t, verdict.Reasons, "Error during analysis")
}

func TestAnalyze_ExtraSignalClamped(t *testing.T) {
	d := testDetector(Options{
		ExtraSignal: func(ctx context.Context, url string) (*models.Signal, error) {
			return &models.Signal{Score: 7.5}, nil
		},
	})

	verdict := d.Analyze(context.Background(), "http://")

	assert.LessOrEqual(t, verdict.Score, 1.0)
	assert.Equal(t, 1.0, verdict.Breakdown[SignalExtra].Score)
}

func TestAnalyze_FailOpenOnPanic(t *testing.T) {
	d := testDetector(Options{
		ExtraSignal: func(ctx context.Context, url string) (*models.Signal, error) {
			panic("boom")
		},
	})

	verdict := d.Analyze(context.Background(), "http://")

	assert.False(t, verdict.IsScam)
	assert.Zero(t, verdict.Score)
	assert.Equal(t, []string{"Error during analysis"}, verdict.Reasons)
}

func TestAnalyze_ScoreAlwaysInRange(t *testing.T) {
	d := testDetector(Options{
		FetchTimeout: 500 * time.Millisecond,
		TLSTimeout:   500 * time.Millisecond,
	})

	for _, raw := range []string{
		"",
		"http://",
		"not a url at all",
		"http://192.168.1.1/login?a=%41%42%43%44",
		"https://gooogle.invalid",
		"https://login.verify.account.amazom.xyz/" + string(make([]byte, 300)),
	} {
		verdict := d.Analyze(context.Background(), raw)
		assert.GreaterOrEqual(t, verdict.Score, 0.0, raw)
		assert.LessOrEqual(t, verdict.Score, 1.0, raw)
	}
}

func TestAnalyze_TransportUnreachableIsZero(t *testing.T) {
	d := testDetector(Options{TLSTimeout: 500 * time.Millisecond})

	sig := d.analyzeTransport(context.Background(), newInput("https://unreachable.invalid"))

	assert.Zero(t, sig.Score)
	assert.Empty(t, sig.Reasons)
}
