package services_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ssnapify/ssnapify-backend/internal/lib/smtp"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	services "github.com/ssnapify/ssnapify-backend/internal/services/notifier"
)

// Мок для smtp.Client
type SMTPClientMock struct {
	mock.Mock
}

func (m *SMTPClientMock) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *SMTPClientMock) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *SMTPClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *SMTPClientMock) Quit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *SMTPClientMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type writeCloser struct {
	buf *bytes.Buffer
}

func (w writeCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w writeCloser) Close() error                { return nil }

// Мок для smtp.TransportInterface
type TransportMock struct {
	mock.Mock
}

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SMTPClientMock), args.Error(1)
}

func (m *TransportMock) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierService_SendPlanExpiredNotice(t *testing.T) {
	event := models.PlanExpiredEvent{
		UserUID:   "uid-1",
		Email:     "user@example.com",
		Username:  "testuser",
		PlanID:    2,
		ExpiredAt: time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("successful delivery", func(t *testing.T) {
		var written bytes.Buffer
		client := new(SMTPClientMock)
		client.On("Mail", "noreply@ssnapify.io").Return(nil).Once()
		client.On("Rcpt", "user@example.com").Return(nil).Once()
		client.On("Data").Return(writeCloser{buf: &written}, nil).Once()
		client.On("Quit").Return(nil).Once()
		client.On("Close").Return(nil).Once()

		transport := new(TransportMock)
		transport.On("Connect").Return(client, nil).Once()
		transport.On("GetSMTPUser").Return("noreply@ssnapify.io")

		svc := services.NewNotifierService(transport, discardLogger())

		err := svc.SendPlanExpiredNotice(body)

		require.NoError(t, err)
		assert.Contains(t, written.String(), "testuser")
		assert.Contains(t, written.String(), "05.03.2025")
		client.AssertExpectations(t)
		transport.AssertExpectations(t)
	})

	t.Run("malformed event body", func(t *testing.T) {
		svc := services.NewNotifierService(new(TransportMock), discardLogger())

		err := svc.SendPlanExpiredNotice([]byte("{not json"))

		require.Error(t, err)
	})

	t.Run("connect failure", func(t *testing.T) {
		transport := new(TransportMock)
		transport.On("Connect").Return(nil, errors.New("dial tcp: refused")).Once()
		transport.On("GetSMTPUser").Return("noreply@ssnapify.io")
		svc := services.NewNotifierService(transport, discardLogger())

		err := svc.SendPlanExpiredNotice(body)

		require.Error(t, err)
		transport.AssertExpectations(t)
	})
}
