// Package services содержит логику работы с изображениями: загрузку во
// внешний медиасервис, AI-трансформации с оплатой кредитами, список и
// удаление.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ssnapify/ssnapify-backend/internal/cloudinary"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// ErrUnknownTransformation — запрошенный тип трансформации не поддерживается.
var ErrUnknownTransformation = errors.New("unknown transformation type")

// transformation описывает поддерживаемую AI-трансформацию: строку
// преобразования медиасервиса и стоимость в кредитах.
type transformation struct {
	URLSegment string
	Cost       int
}

// Стоимость задаётся на каждый тип действия, генеративные операции дороже.
var transformations = map[string]transformation{
	"restore":   {URLSegment: "e_gen_restore", Cost: 3},
	"remove_bg": {URLSegment: "e_background_removal", Cost: 2},
	"fill":      {URLSegment: "b_gen_fill,c_pad,ar_1:1", Cost: 2},
	"enhance":   {URLSegment: "e_enhance", Cost: 2},
	"grayscale": {URLSegment: "e_grayscale", Cost: 1},
}

// ImageRepository описывает контракт хранилища изображений.
type ImageRepository interface {
	CreateImage(ctx context.Context, img models.Image) (int, error)
	GetImage(ctx context.Context, id int, userUID string) (*models.Image, error)
	ListImages(ctx context.Context, userUID string, limit, offset int) ([]*models.Image, error)
	SetTransformation(ctx context.Context, id int, transformationType, transformedURL string) error
	RemoveImage(ctx context.Context, id int, userUID string) (int, error)
}

// MediaStorage описывает контракт внешнего медиасервиса.
type MediaStorage interface {
	Upload(fileContent []byte, publicID string) (*cloudinary.UploadResponse, error)
	Destroy(publicID string) error
	TransformationURL(publicID, transformation string) string
}

// CreditGate — гейт списания и возврата кредитов биллингового движка.
type CreditGate interface {
	SpendCredits(ctx context.Context, user *models.User, cost int) (int, error)
	RefundCredits(ctx context.Context, userUID string, cost int) error
}

// ImageService реализует пользовательские операции с изображениями.
type ImageService struct {
	repo    ImageRepository
	media   MediaStorage
	billing CreditGate
	log     *slog.Logger
}

// NewImageService создает новый экземпляр ImageService.
func NewImageService(repo ImageRepository, media MediaStorage, billing CreditGate, log *slog.Logger) *ImageService {
	return &ImageService{
		repo:    repo,
		media:   media,
		billing: billing,
		log:     log,
	}
}

// TransformationCost возвращает стоимость трансформации в кредитах.
func TransformationCost(transformationType string) (int, error) {
	spec, ok := transformations[transformationType]
	if !ok {
		return 0, ErrUnknownTransformation
	}
	return spec.Cost, nil
}

// Upload загружает изображение в медиасервис и сохраняет запись о нем.
// Загрузка бесплатна, кредиты списываются только за трансформации.
func (s *ImageService) Upload(ctx context.Context, user *models.User, title string, fileContent []byte) (*models.Image, error) {
	const op = "services.image.Upload"

	publicID := uuid.NewString()
	uploaded, err := s.media.Upload(fileContent, publicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	img := models.Image{
		UserUID:   user.UID,
		PublicID:  uploaded.PublicID,
		SecureURL: uploaded.SecureURL,
		Title:     title,
	}
	id, err := s.repo.CreateImage(ctx, img)
	if err != nil {
		// запись не создана, подчищаем ресурс в медиасервисе
		if destroyErr := s.media.Destroy(uploaded.PublicID); destroyErr != nil {
			s.log.Error("failed to destroy orphaned media resource",
				slog.String("public_id", uploaded.PublicID),
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	img.ID = id

	s.log.Info("image uploaded",
		slog.String("user_uid", user.UID),
		slog.Int("image_id", id),
		slog.String("public_id", uploaded.PublicID))
	return &img, nil
}

// Transform применяет AI-трансформацию к изображению пользователя.
// Кредиты списываются до действия через биллинговый гейт; если запись
// результата не удалась после успешного списания, кредиты возвращаются —
// пользователь не платит за неудавшуюся операцию.
func (s *ImageService) Transform(ctx context.Context, user *models.User, imageID int, transformationType string) (*models.Image, error) {
	const op = "services.image.Transform"

	spec, ok := transformations[transformationType]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, transformationType, ErrUnknownTransformation)
	}

	img, err := s.repo.GetImage(ctx, imageID, user.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.billing.SpendCredits(ctx, user, spec.Cost); err != nil {
		return nil, err
	}

	transformedURL := s.media.TransformationURL(img.PublicID, spec.URLSegment)
	if err := s.repo.SetTransformation(ctx, img.ID, transformationType, transformedURL); err != nil {
		if refundErr := s.billing.RefundCredits(ctx, user.UID, spec.Cost); refundErr != nil {
			s.log.Error("failed to refund credits after transform failure",
				slog.String("user_uid", user.UID),
				slog.String("error", refundErr.Error()))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	img.TransformationType = transformationType
	img.TransformedURL = transformedURL

	s.log.Info("image transformed",
		slog.String("user_uid", user.UID),
		slog.Int("image_id", img.ID),
		slog.String("type", transformationType),
		slog.Int("cost", spec.Cost))
	return img, nil
}

// List возвращает страницу изображений пользователя.
func (s *ImageService) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Image, error) {
	const op = "services.image.List"

	images, err := s.repo.ListImages(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return images, nil
}

// Remove удаляет изображение пользователя из медиасервиса и хранилища.
func (s *ImageService) Remove(ctx context.Context, userUID string, imageID int) error {
	const op = "services.image.Remove"

	img, err := s.repo.GetImage(ctx, imageID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.media.Destroy(img.PublicID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.RemoveImage(ctx, imageID, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("image removed",
		slog.String("user_uid", userUID),
		slog.Int("image_id", imageID))
	return nil
}
