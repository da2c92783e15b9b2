package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// ErrImageNotFound возвращается, когда изображение отсутствует в базе.
var ErrImageNotFound = errors.New("image not found")

// CreateImage сохраняет запись о загруженном изображении и возвращает её ID.
func (s *Storage) CreateImage(ctx context.Context, img models.Image) (int, error) {
	const op = "storage.CreateImage"
	var newID int
	query := `INSERT INTO images (user_uid, public_id, secure_url, title)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		img.UserUID, img.PublicID, img.SecureURL, img.Title).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetImage возвращает изображение по ID, принадлежащее пользователю.
func (s *Storage) GetImage(ctx context.Context, id int, userUID string) (*models.Image, error) {
	const op = "storage.GetImage"
	query := `SELECT id, user_uid, public_id, secure_url, title,
			      COALESCE(transformation_type, ''), COALESCE(transformed_url, ''), created_at
			  FROM images
			  WHERE id = $1 AND user_uid = $2`
	img := &models.Image{}
	err := s.DB.QueryRowContext(ctx, query, id, userUID).Scan(
		&img.ID, &img.UserUID, &img.PublicID, &img.SecureURL, &img.Title,
		&img.TransformationType, &img.TransformedURL, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrImageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

// ListImages возвращает изображения пользователя с пагинацией.
func (s *Storage) ListImages(ctx context.Context, userUID string, limit, offset int) ([]*models.Image, error) {
	const op = "storage.ListImages"
	query := `SELECT id, user_uid, public_id, secure_url, title,
			      COALESCE(transformation_type, ''), COALESCE(transformed_url, ''), created_at
			  FROM images
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Image
	for rows.Next() {
		img := &models.Image{}
		if err = rows.Scan(&img.ID, &img.UserUID, &img.PublicID, &img.SecureURL, &img.Title,
			&img.TransformationType, &img.TransformedURL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, img)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetTransformation сохраняет тип и ссылку применённой трансформации.
func (s *Storage) SetTransformation(ctx context.Context, id int, transformationType, transformedURL string) error {
	const op = "storage.SetTransformation"
	query := `UPDATE images
			  SET transformation_type = $1,
			      transformed_url = $2
			  WHERE id = $3`
	res, err := s.DB.ExecContext(ctx, query, transformationType, transformedURL, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrImageNotFound)
	}
	return nil
}

// RemoveImage удаляет запись об изображении пользователя
// и возвращает количество удалённых записей.
func (s *Storage) RemoveImage(ctx context.Context, id int, userUID string) (int, error) {
	const op = "storage.RemoveImage"
	query := `DELETE FROM images
			  WHERE id = $1 AND user_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}
