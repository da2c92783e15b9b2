package models

import "time"

// Image представляет загруженное пользователем изображение,
// размещённое во внешнем медиасервисе.
type Image struct {
	ID                 int       // Идентификатор записи
	UserUID            string    // Владелец изображения
	PublicID           string    // Идентификатор ресурса в медиасервисе
	SecureURL          string    // HTTPS-ссылка на исходное изображение
	Title              string    // Название, заданное пользователем
	TransformationType string    // Тип применённой трансформации, например restore
	TransformedURL     string    // Ссылка на результат трансформации, если была
	CreatedAt          time.Time // Дата загрузки
}

// TransformRequest используется для приёма параметров AI-трансформации
// изображения из JSON-запроса.
type TransformRequest struct {
	Type string `json:"type" validate:"required,oneof=restore remove_bg fill grayscale enhance"` // Тип трансформации
}
