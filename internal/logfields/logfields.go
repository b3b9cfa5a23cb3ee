package logfields

import (
	"log/slog"
	"strings"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyHop        = "hop"
	KeyFrom       = "from"
	KeyTo         = "to"
	KeyVersion    = "version"
	KeyRoute      = "route"
	KeyDepth      = "depth"
	KeyKey        = "key"
	KeyPath       = "path"
	KeyElement    = "element"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Hop(from, to string) slog.Attr     { return slog.String(KeyHop, from+"->"+to) }
func From(v string) slog.Attr           { return slog.String(KeyFrom, v) }
func To(v string) slog.Attr             { return slog.String(KeyTo, v) }
func Version(v string) slog.Attr        { return slog.String(KeyVersion, v) }
func Route(r []string) slog.Attr        { return slog.String(KeyRoute, strings.Join(r, " -> ")) }
func Depth(d int) slog.Attr             { return slog.Int(KeyDepth, d) }
func Key(k string) slog.Attr            { return slog.String(KeyKey, k) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Element(name string) slog.Attr     { return slog.String(KeyElement, name) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
