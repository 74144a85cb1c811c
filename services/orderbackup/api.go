package orderbackup

import (
	"context"
)

// Store is the local order backup log. It is a best-effort mirror in case the
// Stripe dashboard is unreachable: Stripe itself stays the system of record,
// so callers treat append/merge failures as non-fatal and reads degrade to
// empty results instead of failing.
type Store interface {
	// Append stamps the record with a backup timestamp and version and adds
	// it to the master log and to the daily partition for the record's own
	// creation date.
	Append(c context.Context, record OrderRecord) error

	FindBySessionID(c context.Context, sessionID string) (OrderRecord, bool, error)

	// Merge shallow-merges the patch fields into the record with the given
	// session id, preserving fields not present in the patch. When no such
	// record exists the patch becomes a new record (fallback to Append).
	Merge(c context.Context, sessionID string, patch Patch) error

	ListAll(c context.Context) ([]OrderRecord, error)

	// ListByDate returns the daily partition for a YYYY-MM-DD date, or empty
	// when no partition exists.
	ListByDate(c context.Context, date string) ([]OrderRecord, error)

	// Search matches term case-insensitively against customer email, session
	// id, customer name and the serialized line items.
	Search(c context.Context, term string) ([]OrderRecord, error)

	Stats(c context.Context) (OrderStats, error)
}
