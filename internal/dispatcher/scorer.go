package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

// Prediction is the raw scorer output before normalization. A two-class
// sigmoid model reports a single probability; a softmax model reports
// the full vector.
type Prediction struct {
	Probability   *float64  `json:"probability,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// Scorer is the opaque remote scoring function.
type Scorer interface {
	Predict(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error)
}

// HTTPScorer calls the external inference server's /predict endpoint
// with the model path as a query parameter and the scan as a multipart
// file upload.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPScorer(baseURL string, timeout time.Duration) *HTTPScorer {
	return &HTTPScorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPScorer) Predict(ctx context.Context, modelPath string, image []byte, contentType string) (Prediction, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="scan"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return Prediction{}, err
	}
	if _, err := part.Write(image); err != nil {
		return Prediction{}, err
	}
	if err := writer.Close(); err != nil {
		return Prediction{}, err
	}

	endpoint := fmt.Sprintf("%s/predict?model_path=%s", s.baseURL, url.QueryEscape(modelPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("scorer call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("scorer returned status %d: %s", resp.StatusCode, msg)
	}

	var prediction Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return Prediction{}, fmt.Errorf("invalid response from scorer: %w", err)
	}
	if prediction.Probability == nil && len(prediction.Probabilities) == 0 {
		return Prediction{}, fmt.Errorf("scorer returned no probabilities")
	}
	return prediction, nil
}
