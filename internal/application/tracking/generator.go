// Package tracking issues tracking references for submitted applications.
//
// A reference has the form PREFIX-YYYYMMDD-XXXXXXXXXX where the suffix is ten
// Crockford base32 characters (50 bits) from crypto/rand. Every candidate is reserved
// in a Registry before it is handed out and reservations are never released, so a
// reference is unique across the lifetime of the registry, archived applications
// included.
package tracking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	appmetrics "schemeflow/internal/application/metrics"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

const (
	DefaultPrefix      = "SCH"
	defaultMaxAttempts = 5
	suffixLength       = 10
	dateLayout         = "20060102"
)

// Crockford's alphabet omits I, L, O and U to avoid misreading over the phone.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Registry records issued references. Reserve returns sentinel.ErrAlreadyUsed when the
// reference was reserved before.
type Registry interface {
	Reserve(ctx context.Context, ref id.TrackingReference) error
}

type Generator struct {
	prefix      string
	registry    Registry
	random      io.Reader
	maxAttempts int
	metrics     *appmetrics.Metrics
}

type Option func(*Generator)

func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		if prefix = strings.ToUpper(strings.TrimSpace(prefix)); prefix != "" {
			g.prefix = prefix
		}
	}
}

// WithRandom replaces the entropy source; tests use it to force collisions.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.random = r
	}
}

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithMetrics(m *appmetrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

func NewGenerator(registry Registry, opts ...Option) *Generator {
	g := &Generator{
		prefix:      DefaultPrefix,
		registry:    registry,
		random:      rand.Reader,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a freshly reserved reference. A collision with an earlier
// reservation is retried; after maxAttempts collisions an internal error is returned.
func (g *Generator) Generate(ctx context.Context) (id.TrackingReference, error) {
	date := requestcontext.Now(ctx).UTC().Format(dateLayout)
	for range g.maxAttempts {
		suffix, err := g.suffix()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate tracking reference")
		}
		ref := id.TrackingReference(g.prefix + "-" + date + "-" + suffix)

		err = g.registry.Reserve(ctx, ref)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve tracking reference")
		}
		g.metrics.IncrementTrackingCollision()
	}
	return "", dErrors.New(dErrors.CodeInternal,
		fmt.Sprintf("tracking reference still colliding after %d attempts", g.maxAttempts))
}

func (g *Generator) suffix() (string, error) {
	var buf [suffixLength]byte
	if _, err := io.ReadFull(g.random, buf[:]); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(suffixLength)
	for _, c := range buf {
		b.WriteByte(crockford[c&0x1f])
	}
	return b.String(), nil
}
