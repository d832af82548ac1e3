package domain

// PayloadKind distinguishes the two storage shapes a document payload can take
type PayloadKind int

const (
	// PayloadInline is the canonical forward-going form: encoded bytes
	// embedded in the record itself
	PayloadInline PayloadKind = iota
	// PayloadExternalPath is the legacy read-only form: a path into the
	// configured upload directory
	PayloadExternalPath
)

// DocumentPayload is a tagged union over the two payload shapes. Records with
// neither shape never produce a DocumentPayload; they fail at Payload()
// extraction with ErrDocumentUnavailable.
type DocumentPayload struct {
	Kind PayloadKind
	// Encoded holds the inline encoded bytes when Kind == PayloadInline
	Encoded string
	// Path holds the external storage path when Kind == PayloadExternalPath
	Path string
}

// InlinePayload builds the canonical inline form
func InlinePayload(encoded string) DocumentPayload {
	return DocumentPayload{Kind: PayloadInline, Encoded: encoded}
}

// ExternalPathRef builds the legacy external-path form
func ExternalPathRef(path string) DocumentPayload {
	return DocumentPayload{Kind: PayloadExternalPath, Path: path}
}
