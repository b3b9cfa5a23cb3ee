// Package errors provides the classified error primitives shared by ojsconvert.
//
// Every condition raised while converting a document is a ClassifiedError carrying a
// category (route, validation, config, filesystem, transform, journal), the severity
// that category implies and structured context. Components wrap their sentinel errors as the cause so
// callers can keep using errors.Is:
//
//	err := errors.WrapError(ErrRouteNotFound, errors.CategoryRoute, msg).
//		WithContext("from", from).
//		WithContext("to", to).
//		Build()
//
// The CLI adapter turns any error into a single report line and a binary exit status.
package errors
