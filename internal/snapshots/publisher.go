package snapshots

import (
	"context"
	"encoding/json"
	"time"

	"github.com/northfarm/sales-backend/internal/entries"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/logger"
)

// Broker is the pub/sub surface the publisher needs.
type Broker interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Publisher builds wholesale snapshots from the repositories and pushes them
// onto the broker channel. Mutating services call PublishCurrent after each
// successful write; failures are logged and swallowed so fan-out never blocks
// the write path.
type Publisher struct {
	sales    entries.SaleRepository
	closures entries.ClosureRepository
	broker   Broker
	channel  string
	logg     *logger.Logger
	now      func() time.Time
}

// NewPublisher wires a snapshot publisher.
func NewPublisher(sales entries.SaleRepository, closures entries.ClosureRepository, broker Broker, channel string, logg *logger.Logger) (*Publisher, error) {
	if sales == nil || closures == nil || broker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snapshot publisher dependencies required")
	}
	if channel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snapshot channel required")
	}
	return &Publisher{
		sales:    sales,
		closures: closures,
		broker:   broker,
		channel:  channel,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// PublishCurrent reads the full ledger state and publishes it. The error is
// also logged here so fire-and-forget callers can ignore the return.
func (p *Publisher) PublishCurrent(ctx context.Context) error {
	snap, err := p.build(ctx)
	if err != nil {
		p.logError(ctx, "building ledger snapshot failed", err)
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		p.logError(ctx, "encoding ledger snapshot failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode snapshot")
	}

	if err := p.broker.Publish(ctx, p.channel, payload); err != nil {
		p.logError(ctx, "publishing ledger snapshot failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish snapshot")
	}
	return nil
}

func (p *Publisher) build(ctx context.Context) (*Snapshot, error) {
	rows, err := p.sales.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entries for snapshot")
	}
	marks, err := p.closures.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load closed dates for snapshot")
	}
	return &Snapshot{
		Entries:     rows,
		ClosedDates: marks,
		PublishedAt: p.now().UTC(),
	}, nil
}

func (p *Publisher) logError(ctx context.Context, msg string, err error) {
	if p.logg != nil {
		p.logg.Error(ctx, msg, err)
	}
}
