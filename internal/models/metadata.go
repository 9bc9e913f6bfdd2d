package models

// PageMetadata is the result of scraping a bookmarked page.
// All fields are optional; a failed fetch degrades to hostname-only data.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
	Description string `json:"description,omitempty"`
}

// Empty reports whether the scrape produced no usable data at all.
func (m PageMetadata) Empty() bool {
	return m.Title == "" && m.Favicon == "" && m.OGImage == "" && m.Description == ""
}
