package errors

// ErrorCategory says which part of a conversion failed.
type ErrorCategory string

const (
	// CategoryRoute covers hop graph lookups (no route, no transformer for a pair).
	CategoryRoute ErrorCategory = "route"
	// CategoryValidation covers grammar mismatches reported by the validator.
	CategoryValidation ErrorCategory = "validation"
	// CategoryConfig covers configuration problems, including broken grammars.
	CategoryConfig ErrorCategory = "config"
	// CategoryFileSystem covers document load and write failures at the boundary.
	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryTransform covers failures raised while a hop rewrites the tree.
	CategoryTransform ErrorCategory = "transform"
	// CategoryJournal covers run journal persistence.
	CategoryJournal ErrorCategory = "journal"
)

// ErrorSeverity says whether an error ends the run.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityWarning ErrorSeverity = "warning"
)

// severityOf maps each category to its severity. A journal that cannot be written
// degrades the run record, never the conversion.
var severityOf = map[ErrorCategory]ErrorSeverity{
	CategoryRoute:      SeverityFatal,
	CategoryValidation: SeverityFatal,
	CategoryConfig:     SeverityFatal,
	CategoryFileSystem: SeverityFatal,
	CategoryTransform:  SeverityFatal,
	CategoryJournal:    SeverityWarning,
}

// ErrorContext holds the structured fields attached to an error.
type ErrorContext map[string]any

// Set stores value under key, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}
