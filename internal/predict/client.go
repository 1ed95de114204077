// Package predict wraps the external inference service that turns a chest
// X-ray into a diagnostic verdict. The core persists whatever this service
// returns; it never second-guesses the model.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/config"
)

var ErrUnavailable = errors.New("prediction service unavailable")

// Percentage tolerates both JSON numbers and the quoted "82.45" strings the
// inference service emits for its percentage fields.
type Percentage float64

func (p *Percentage) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing percentage %q: %w", s, err)
	}
	*p = Percentage(f)
	return nil
}

type Result struct {
	Prediction          string     `json:"prediction"`
	PneumoniaPercentage Percentage `json:"pneumonia_percentage"`
	NormalPercentage    Percentage `json:"normal_percentage"`
	Confidence          Percentage `json:"confidence"`
	ImageURL            string     `json:"image_url"`
	SaliencyMapURL      string     `json:"saliency_map_url"`
	ModelUsed           string     `json:"model_used"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Request is the multipart submission the inference service expects: the
// image file plus the patient metadata it echoes into its own bookkeeping.
type Request struct {
	ImageName string
	Image     io.Reader

	Owner        string
	Name         string
	Surname      string
	Age          int
	MobileNumber string
}

type Client struct {
	http *resty.Client
	log  *zap.Logger
}

func NewClient(cfg config.PredictionConfig, log *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("Accept", "application/json")

	return &Client{http: client, log: log}
}

// Predict submits the image and metadata and returns the diagnostic facts.
func (c *Client) Predict(ctx context.Context, req *Request) (*Result, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("imagefile", req.ImageName, req.Image).
		SetFormData(map[string]string{
			"doctor_email": req.Owner,
			"name":         req.Name,
			"surname":      req.Surname,
			"age":          strconv.Itoa(req.Age),
			"mobile":       req.MobileNumber,
		}).
		Post("/predict")
	if err != nil {
		c.log.Error("prediction request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode() != 200 {
		var apiErr errorResponse
		_ = json.Unmarshal(resp.Body(), &apiErr)
		if apiErr.Error != "" {
			return nil, fmt.Errorf("prediction service rejected request: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	var result Result
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decoding prediction response: %w", err)
	}

	c.log.Info("prediction received",
		zap.String("label", result.Prediction),
		zap.Float64("confidence", float64(result.Confidence)),
		zap.String("model", result.ModelUsed),
		zap.Duration("took", resp.Time()),
	)

	return &result, nil
}

// Healthy pings the inference endpoint with a short deadline.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := c.http.R().SetContext(ctx).Get("/")
	return err == nil && resp.StatusCode() < 500
}
