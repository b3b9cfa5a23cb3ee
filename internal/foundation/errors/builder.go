package errors

// ErrorBuilder assembles a ClassifiedError field by field.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category. The severity follows from the category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	severity, ok := severityOf[category]
	if !ok {
		severity = SeverityFatal
	}
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: severity, message: message}}
}

// WrapError starts an error of category around cause, so errors.Is still finds
// sentinels inside it.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// Build returns the error. A builder is not reused after Build.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

func ConfigError(message string) *ErrorBuilder     { return NewError(CategoryConfig, message) }
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }
func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }
func TransformError(message string) *ErrorBuilder  { return NewError(CategoryTransform, message) }
func JournalError(message string) *ErrorBuilder    { return NewError(CategoryJournal, message) }
