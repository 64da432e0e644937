package plate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultPlateRecognizerURL = "https://api.platerecognizer.com/v1/plate-reader/"

// PlateRecognizer reads plates with the Plate Recognizer cloud API.
type PlateRecognizer struct {
	URL     string
	Token   string
	Regions []string
	Client  *http.Client
}

type plateRecognizerRequest struct {
	Upload string `json:"upload"`
}

type plateRecognizerResponse struct {
	Results []struct {
		Plate      string  `json:"plate"`
		Score      float32 `json:"score"`
		Candidates []struct {
			Plate string  `json:"plate"`
			Score float32 `json:"score"`
		} `json:"candidates"`
	} `json:"results"`
}

func NewPlateRecognizer(apiURL, token string, regions []string, timeout time.Duration) *PlateRecognizer {
	if apiURL == "" {
		apiURL = DefaultPlateRecognizerURL
	}
	return &PlateRecognizer{
		URL:     apiURL,
		Token:   token,
		Regions: regions,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (p *PlateRecognizer) Name() string { return "platerecognizer" }

func (p *PlateRecognizer) Read(ctx context.Context, image []byte) (string, float32, error) {
	endpoint, err := url.Parse(p.URL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid plate recognizer url: %w", err)
	}
	query := endpoint.Query()
	for _, region := range p.Regions {
		query.Add("regions", region)
	}
	query.Set("topn", "1")
	endpoint.RawQuery = query.Encode()

	body, err := json.Marshal(plateRecognizerRequest{Upload: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+p.Token)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("plate recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("plate recognizer returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed plateRecognizerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("failed to decode plate recognizer response: %w", err)
	}

	if len(parsed.Results) == 0 || parsed.Results[0].Plate == "" {
		return "", 0, ErrNoPlate
	}
	first := parsed.Results[0]
	return first.Plate, first.Score, nil
}
