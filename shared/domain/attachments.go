package domain

type Attachment struct {
	Title       string `json:"title,omitempty"`
	TitleLink   string `json:"title_link,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Type        string `json:"type,omitempty"`
}

func attachmentsEqual(a, b []Attachment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CustomEmoji is a server-defined emoji served as an image.
type CustomEmoji struct {
	Name      string   `json:"name" validate:"required"`
	Aliases   []string `json:"aliases,omitempty"`
	Extension string   `json:"extension" validate:"required"`
}
