package domain

// Contact is one card-format record: a display name and a single telephone
// value. Two contacts are duplicates only when both fields match literally.
type Contact struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

// Key returns the literal dedup key for the contact.
func (c Contact) Key() [2]string {
	return [2]string{c.DisplayName, c.Phone}
}

// FileResult is the immutable outcome of processing one uploaded file.
// Exactly one of PhoneNumbers or Contacts is populated, depending on the
// upload's format.
type FileResult struct {
	OriginalFilename string    `json:"original_filename"`
	PhoneNumbers     []string  `json:"phone_numbers,omitempty"`
	Contacts         []Contact `json:"contacts,omitempty"`
}

// Size returns the number of extracted items the file contributed.
func (f FileResult) Size() int {
	if len(f.Contacts) > 0 {
		return len(f.Contacts)
	}
	return len(f.PhoneNumbers)
}

// OutputFile is one generated file handed to the gateway for delivery.
type OutputFile struct {
	Name    string `json:"name"`
	Data    []byte `json:"-"`
	Entries int    `json:"entries"`
}
