package domain

// Taxonomy is the published document type taxonomy, kept as raw bytes so it
// reaches clients exactly as the publisher serves it.
type Taxonomy struct {
	ContentType string
	Body        []byte
}
