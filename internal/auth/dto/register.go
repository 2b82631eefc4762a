package dto

type RegisterInput struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	FirstName        string `json:"firstName" validate:"required"`
	LastName         string `json:"lastName" validate:"required"`
	Phone            string `json:"phone"`
	ConsentPrivacy   *bool  `json:"consentPrivacy"`
	ConsentMarketing bool   `json:"consentMarketing"`
	IPAddress        string `json:"-"`
	UserAgent        string `json:"-"`
}

// PrivacyConsented defaults to true when the flag is omitted, matching the
// portal's registration form which pre-checks the privacy policy box.
func (i RegisterInput) PrivacyConsented() bool {
	return i.ConsentPrivacy == nil || *i.ConsentPrivacy
}
