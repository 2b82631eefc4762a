package dto

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}
