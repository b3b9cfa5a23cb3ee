// Package schema locates the native import/export grammar of a schema version on disk
// and validates documents against it: XSD grammars through libxml2, DTD grammars by a
// checker over the element tree.
//
// A version's grammar lives in a version directory, <root>/xsd/<version> or
// <root>/<version>, under one of the candidate roots. Inside it the preferred grammar is
// plugins/importexport/native/native.xsd, which includes
// lib/pkp/plugins/importexport/native/pkp-native.xsd; lib/pkp/xml/importexport.xsd is
// the fallback, and native.dtd is the last resort (2.4.8).
package schema
