// Package cloudinary реализует HTTP-клиент медиасервиса Cloudinary:
// загрузку и удаление изображений, а также построение URL трансформаций.
// Запросы подписываются SHA-1 подписью из отсортированных параметров
// и секретного ключа, как того требует API сервиса.
package cloudinary

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Client — клиент Cloudinary API.
type Client struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	apiURL     string
	deliverURL string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Cloudinary.
func NewClient(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		cloudName:  cloudName,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		folder:     folder,
		apiURL:     "https://api.cloudinary.com/v1_1",
		deliverURL: "https://res.cloudinary.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload загружает изображение и возвращает его public_id и ссылку.
func (c *Client) Upload(fileContent []byte, publicID string) (*UploadResponse, error) {
	const op = "cloudinary.Upload"

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"folder":    c.folder,
		"timestamp": timestamp,
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := writer.WriteField("signature", c.sign(params)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	part, err := writer.CreateFormFile("file", publicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = part.Write(fileContent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", c.apiURL, c.cloudName)
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result UploadResponse
	if err = c.do(req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// Destroy удаляет изображение из медиасервиса по public_id.
func (c *Client) Destroy(publicID string) error {
	const op = "cloudinary.Destroy"

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := make([]string, 0, len(params)+2)
	for key, value := range params {
		form = append(form, key+"="+value)
	}
	form = append(form, "api_key="+c.apiKey, "signature="+c.sign(params))

	url := fmt.Sprintf("%s/%s/image/destroy", c.apiURL, c.cloudName)
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result DestroyResponse
	if err = c.do(req, &result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.Result != "ok" {
		return fmt.Errorf("%s: unexpected result %q", op, result.Result)
	}
	return nil
}

// TransformationURL строит URL изображения с применённой трансформацией.
// Сами трансформации Cloudinary выполняет при первом обращении по ссылке.
func (c *Client) TransformationURL(publicID, transformation string) string {
	return fmt.Sprintf("%s/%s/image/upload/%s/%s", c.deliverURL, c.cloudName, transformation, publicID)
}

// sign подписывает параметры запроса: пары key=value сортируются по ключу,
// соединяются через "&" и хэшируются SHA-1 вместе с секретом.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	payload := strings.Join(pairs, "&") + c.apiSecret

	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			return fmt.Errorf("unexpected status %s: %s", resp.Status, errResp.Error.Message)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.Unmarshal(body, result)
}
