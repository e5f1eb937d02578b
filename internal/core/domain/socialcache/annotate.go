package socialcache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Source tells where a stats payload came from.
type Source string

const (
	SourceFreshCache Source = "fresh_cache"
	SourceUpstream   Source = "upstream"
	SourceStaleCache Source = "stale_cache"
)

const (
	FieldCached        = "_cached"
	FieldFetchStatus   = "_fetchStatus"
	FieldLastFetchedAt = "_lastFetchedAt"
	FieldMessage       = "_message"

	// isoMillis matches the ISO-8601 shape dashboards already parse (2006-01-02T15:04:05.000Z).
	isoMillis = "2006-01-02T15:04:05.000Z07:00"

	MessageStaleOnError = "Using cached data due to API error"
	MessageCached       = "Serving cached data"
)

// Annotate renders the entry's payload with the provenance fields the dashboard
// uses to flag degraded data. The entry itself is left untouched. Payloads that
// are not JSON objects are nested under "data".
func Annotate(entry *CacheEntry, message string) (json.RawMessage, error) {
	if entry == nil {
		return nil, fmt.Errorf("annotate: nil cache entry")
	}
	fields := make(map[string]json.RawMessage)
	if entry.HasData() {
		if err := json.Unmarshal(entry.Data, &fields); err != nil || fields == nil {
			fields = map[string]json.RawMessage{"data": entry.Data}
		}
	}

	meta := map[string]any{
		FieldCached:        true,
		FieldFetchStatus:   entry.FetchStatus,
		FieldLastFetchedAt: FormatTimestamp(entry.LastFetchedAt),
		FieldMessage:       message,
	}
	for k, v := range meta {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("annotate: encode %s: %w", k, err)
		}
		fields[k] = b
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("annotate: encode payload: %w", err)
	}
	return out, nil
}

// FormatTimestamp renders t the same way Annotate renders _lastFetchedAt.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(isoMillis)
}
