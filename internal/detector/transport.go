package detector

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"linkguard/internal/domain/models"
)

// analyzeTransport probes the TLS setup of the target host. Plain-http URLs
// are penalized without any probing. Transport-level failures (DNS,
// connection refused) are not certificate problems and contribute nothing;
// only a failure inside the TLS handshake counts against the site.
func (d *Detector) analyzeTransport(ctx context.Context, in Input) models.Signal {
	if in.Scheme == "" {
		// unparseable URL, nothing to probe
		return models.Signal{}
	}
	if in.Scheme != "https" {
		return models.Signal{
			Score:   0.5,
			Reasons: []string{"No HTTPS/SSL certificate"},
		}
	}
	if in.Hostname == "" {
		return models.Signal{}
	}

	timeout := d.opts.TLSTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(in.Hostname, "443"))
	if err != nil {
		d.logger.Debug().Err(err).Str("host", in.Hostname).Msg("transport probe failed")
		return models.Signal{}
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	tlsConn := tls.Client(conn, &tls.Config{ServerName: in.Hostname})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return models.Signal{
			Score:   0.5,
			Reasons: []string{"SSL certificate error"},
		}
	}

	if len(tlsConn.ConnectionState().PeerCertificates) == 0 {
		return models.Signal{
			Score:   0.3,
			Reasons: []string{"SSL certificate issues detected"},
		}
	}

	return models.Signal{}
}
