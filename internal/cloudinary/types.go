package cloudinary

// UploadResponse — ответ медиасервиса на загрузку изображения.
type UploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// DestroyResponse — ответ медиасервиса на удаление изображения.
type DestroyResponse struct {
	Result string `json:"result"` // "ok" либо "not found"
}

// ErrorResponse — тело ошибки медиасервиса.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
