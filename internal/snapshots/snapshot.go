package snapshots

import (
	"time"

	"github.com/northfarm/sales-backend/pkg/db/models"
)

// Snapshot is a wholesale copy of the ledger state fanned out after every
// successful mutation. Consumers replace their view entirely; there is no
// incremental diffing.
type Snapshot struct {
	Entries     []models.SaleEntry  `json:"entries"`
	ClosedDates []models.ClosedDate `json:"closed_dates"`
	PublishedAt time.Time           `json:"published_at"`
}
