package domain

// Document is a named output file.
type Document struct {
	Name string
	Body []byte
}

// RenderedTranscript holds the documents produced for one ticket.
type RenderedTranscript struct {
	Markdown     []byte
	HTML         []byte
	FileNameMD   string
	FileNameHTML string
}

// Documents returns the rendered files, skipping the HTML one when it was not produced.
func (r *RenderedTranscript) Documents() []Document {
	docs := []Document{{Name: r.FileNameMD, Body: r.Markdown}}
	if r.HTML != nil {
		docs = append(docs, Document{Name: r.FileNameHTML, Body: r.HTML})
	}
	return docs
}
