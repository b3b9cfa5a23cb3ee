// Package xmltree holds the document model shared by every hop: an etree document in the
// PKP native namespace, the structural primitives the hops compose, and the document
// boundary (parse, pretty-print, atomic write).
//
// Element names are matched by local name only, so the same helpers work on unprefixed
// 2.4.8 documents and on namespaced 3.x documents. Elements synthesized by the helpers
// carry no prefix and inherit the root's default namespace.
package xmltree

const (
	// Namespace is the PKP native namespace declared on the document root.
	Namespace = "http://pkp.sfu.ca"
	// XSINamespace is bound to the xsi prefix for the schemaLocation attribute.
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"
	// DefaultSchemaFile is the grammar location advertised in xsi:schemaLocation.
	DefaultSchemaFile = "native.xsd"
)
