package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ssnapify/ssnapify-backend/internal/cloudinary"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	billingservice "github.com/ssnapify/ssnapify-backend/internal/services/billing"
	services "github.com/ssnapify/ssnapify-backend/internal/services/image"
)

// Мок для ImageRepository
type ImageRepoMock struct {
	mock.Mock
}

func (m *ImageRepoMock) CreateImage(ctx context.Context, img models.Image) (int, error) {
	args := m.Called(ctx, img)
	return args.Int(0), args.Error(1)
}

func (m *ImageRepoMock) GetImage(ctx context.Context, id int, userUID string) (*models.Image, error) {
	args := m.Called(ctx, id, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *ImageRepoMock) ListImages(ctx context.Context, userUID string, limit, offset int) ([]*models.Image, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Image), args.Error(1)
}

func (m *ImageRepoMock) SetTransformation(ctx context.Context, id int, transformationType, transformedURL string) error {
	args := m.Called(ctx, id, transformationType, transformedURL)
	return args.Error(0)
}

func (m *ImageRepoMock) RemoveImage(ctx context.Context, id int, userUID string) (int, error) {
	args := m.Called(ctx, id, userUID)
	return args.Int(0), args.Error(1)
}

// Мок для MediaStorage
type MediaMock struct {
	mock.Mock
}

func (m *MediaMock) Upload(fileContent []byte, publicID string) (*cloudinary.UploadResponse, error) {
	args := m.Called(fileContent, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudinary.UploadResponse), args.Error(1)
}

func (m *MediaMock) Destroy(publicID string) error {
	args := m.Called(publicID)
	return args.Error(0)
}

func (m *MediaMock) TransformationURL(publicID, transformation string) string {
	args := m.Called(publicID, transformation)
	return args.String(0)
}

// Мок для CreditGate
type GateMock struct {
	mock.Mock
}

func (m *GateMock) SpendCredits(ctx context.Context, user *models.User, cost int) (int, error) {
	args := m.Called(ctx, user, cost)
	return args.Int(0), args.Error(1)
}

func (m *GateMock) RefundCredits(ctx context.Context, userUID string, cost int) error {
	args := m.Called(ctx, userUID, cost)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestImageService_Upload(t *testing.T) {
	user := &models.User{UID: "uid-1", Role: models.RoleUser}

	t.Run("successful upload", func(t *testing.T) {
		media := new(MediaMock)
		media.On("Upload", []byte("file-bytes"), mock.AnythingOfType("string")).
			Return(&cloudinary.UploadResponse{
				PublicID:  "ssnapify/generated-id",
				SecureURL: "https://res.example.com/ssnapify/generated-id.png",
			}, nil).Once()
		repo := new(ImageRepoMock)
		repo.On("CreateImage", mock.Anything, mock.MatchedBy(func(img models.Image) bool {
			return img.UserUID == "uid-1" &&
				img.PublicID == "ssnapify/generated-id" &&
				img.Title == "my photo"
		})).Return(42, nil).Once()
		svc := services.NewImageService(repo, media, new(GateMock), discardLogger())

		img, err := svc.Upload(context.Background(), user, "my photo", []byte("file-bytes"))

		require.NoError(t, err)
		assert.Equal(t, 42, img.ID)
		assert.Equal(t, "https://res.example.com/ssnapify/generated-id.png", img.SecureURL)
		media.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("orphaned media resource is destroyed when record creation fails", func(t *testing.T) {
		media := new(MediaMock)
		media.On("Upload", mock.Anything, mock.AnythingOfType("string")).
			Return(&cloudinary.UploadResponse{PublicID: "ssnapify/generated-id"}, nil).Once()
		media.On("Destroy", "ssnapify/generated-id").Return(nil).Once()
		repo := new(ImageRepoMock)
		repo.On("CreateImage", mock.Anything, mock.Anything).
			Return(0, errors.New("connection lost")).Once()
		svc := services.NewImageService(repo, media, new(GateMock), discardLogger())

		_, err := svc.Upload(context.Background(), user, "my photo", []byte("file-bytes"))

		require.Error(t, err)
		media.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
}

func TestImageService_Transform(t *testing.T) {
	user := &models.User{UID: "uid-1", Role: models.RoleUser, CreditBalance: 10}
	stored := &models.Image{ID: 42, UserUID: "uid-1", PublicID: "ssnapify/pic"}

	t.Run("successful transform debits per-type cost", func(t *testing.T) {
		repo := new(ImageRepoMock)
		repo.On("GetImage", mock.Anything, 42, "uid-1").Return(stored, nil).Once()
		repo.On("SetTransformation", mock.Anything, 42, "restore", "https://res.example.com/restored").
			Return(nil).Once()
		media := new(MediaMock)
		media.On("TransformationURL", "ssnapify/pic", "e_gen_restore").
			Return("https://res.example.com/restored").Once()
		gate := new(GateMock)
		gate.On("SpendCredits", mock.Anything, user, 3).Return(7, nil).Once()
		svc := services.NewImageService(repo, media, gate, discardLogger())

		img, err := svc.Transform(context.Background(), user, 42, "restore")

		require.NoError(t, err)
		assert.Equal(t, "restore", img.TransformationType)
		assert.Equal(t, "https://res.example.com/restored", img.TransformedURL)
		repo.AssertExpectations(t)
		media.AssertExpectations(t)
		gate.AssertExpectations(t)
	})

	t.Run("unknown transformation type", func(t *testing.T) {
		svc := services.NewImageService(new(ImageRepoMock), new(MediaMock), new(GateMock), discardLogger())

		_, err := svc.Transform(context.Background(), user, 42, "deepfry")

		assert.ErrorIs(t, err, services.ErrUnknownTransformation)
	})

	t.Run("insufficient credits stop the transform", func(t *testing.T) {
		repo := new(ImageRepoMock)
		repo.On("GetImage", mock.Anything, 42, "uid-1").Return(stored, nil).Once()
		gate := new(GateMock)
		gate.On("SpendCredits", mock.Anything, user, 1).
			Return(0, billingservice.ErrInsufficientCredits).Once()
		svc := services.NewImageService(repo, new(MediaMock), gate, discardLogger())

		_, err := svc.Transform(context.Background(), user, 42, "grayscale")

		assert.ErrorIs(t, err, billingservice.ErrInsufficientCredits)
		repo.AssertExpectations(t)
		gate.AssertExpectations(t)
	})

	t.Run("credits refunded when persisting the result fails", func(t *testing.T) {
		repo := new(ImageRepoMock)
		repo.On("GetImage", mock.Anything, 42, "uid-1").Return(stored, nil).Once()
		repo.On("SetTransformation", mock.Anything, 42, "remove_bg", mock.Anything).
			Return(errors.New("connection lost")).Once()
		media := new(MediaMock)
		media.On("TransformationURL", "ssnapify/pic", "e_background_removal").
			Return("https://res.example.com/no-bg").Once()
		gate := new(GateMock)
		gate.On("SpendCredits", mock.Anything, user, 2).Return(8, nil).Once()
		gate.On("RefundCredits", mock.Anything, "uid-1", 2).Return(nil).Once()
		svc := services.NewImageService(repo, media, gate, discardLogger())

		_, err := svc.Transform(context.Background(), user, 42, "remove_bg")

		require.Error(t, err)
		gate.AssertExpectations(t)
	})
}

func TestImageService_Remove(t *testing.T) {
	stored := &models.Image{ID: 42, UserUID: "uid-1", PublicID: "ssnapify/pic"}

	t.Run("successful removal", func(t *testing.T) {
		repo := new(ImageRepoMock)
		repo.On("GetImage", mock.Anything, 42, "uid-1").Return(stored, nil).Once()
		repo.On("RemoveImage", mock.Anything, 42, "uid-1").Return(1, nil).Once()
		media := new(MediaMock)
		media.On("Destroy", "ssnapify/pic").Return(nil).Once()
		svc := services.NewImageService(repo, media, new(GateMock), discardLogger())

		err := svc.Remove(context.Background(), "uid-1", 42)

		require.NoError(t, err)
		repo.AssertExpectations(t)
		media.AssertExpectations(t)
	})

	t.Run("media failure keeps the record", func(t *testing.T) {
		repo := new(ImageRepoMock)
		repo.On("GetImage", mock.Anything, 42, "uid-1").Return(stored, nil).Once()
		media := new(MediaMock)
		media.On("Destroy", "ssnapify/pic").Return(errors.New("provider unavailable")).Once()
		svc := services.NewImageService(repo, media, new(GateMock), discardLogger())

		err := svc.Remove(context.Background(), "uid-1", 42)

		require.Error(t, err)
		repo.AssertExpectations(t)
	})
}

func TestTransformationCost(t *testing.T) {
	cost, err := services.TransformationCost("restore")
	require.NoError(t, err)
	assert.Equal(t, 3, cost)

	_, err = services.TransformationCost("deepfry")
	assert.ErrorIs(t, err, services.ErrUnknownTransformation)
}
