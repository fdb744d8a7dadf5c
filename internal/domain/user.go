package domain

// User принадлежит подсистеме пользователей; чат использует только профильные поля.
type User struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// ChatPartner - собеседник из списка диалогов (inbox).
type ChatPartner struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}
