package plan

import (
	"time"

	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/logging"
)

// DefaultDescription describes imported boards whose plan has no description.
const DefaultDescription = "Imported from AI Plan"

// Importer runs the full import pipeline: Parse, Resolve, then Hydrate.
type Importer struct {
	hydrator    Hydrator
	description string
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithEngine sets the layout engine.
func WithEngine(e layout.Engine) ImporterOption {
	return func(i *Importer) { i.hydrator.Engine = e }
}

// WithIDGenerator sets the internal id generator.
func WithIDGenerator(f func() string) ImporterOption {
	return func(i *Importer) { i.hydrator.NewID = f }
}

// WithClock sets the clock used for node timestamps.
func WithClock(now func() time.Time) ImporterOption {
	return func(i *Importer) { i.hydrator.Now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ImporterOption {
	return func(i *Importer) { i.hydrator.Logger = l }
}

// WithDefaultDescription sets the description used when a plan has none.
func WithDefaultDescription(d string) ImporterOption {
	return func(i *Importer) { i.description = d }
}

// NewImporter returns an Importer with opts applied.
func NewImporter(opts ...ImporterOption) *Importer {
	i := &Importer{description: DefaultDescription}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import parses raw plan text and hydrates it. Parse and schema failures are
// returned unchanged so callers can show their message to the user.
func (i *Importer) Import(raw string) (*Hydrated, error) {
	p, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(p.Ignored) > 0 {
		i.hydrator.logger().Debug("ignored plan fields with unexpected types", "fields", p.Ignored)
	}

	r := Resolve(p, i.hydrator.NewID)
	h := i.hydrator.Hydrate(p, r)
	if h.Description == "" {
		h.Description = i.description
	}

	i.hydrator.logger().Info("plan hydrated",
		"plan", p.Summary(),
		"nodes", len(h.Nodes),
		"connections", len(h.Connections),
		"dropped_connections", len(r.Dropped),
	)
	return h, nil
}
