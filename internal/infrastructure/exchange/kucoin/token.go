package kucoin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

type bulletResp struct {
	Data struct {
		Token           string `json:"token"`
		InstanceServers []struct {
			Endpoint string `json:"endpoint"`
		} `json:"instanceServers"`
	} `json:"data"`
}

// wsEndpoint requests a public connect token and returns the full websocket
// URL. Called on every reconnect since tokens expire.
func wsEndpoint(ctx context.Context, apiURL string) (string, error) {
	if apiURL == "" {
		return "", errors.New("kucoin api_url empty")
	}

	endpoint := strings.TrimRight(apiURL, "/") + "/api/v1/bullet-public"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bullet-public: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bullet-public: status %d", resp.StatusCode)
	}

	var bullet bulletResp
	if err := json.NewDecoder(resp.Body).Decode(&bullet); err != nil {
		return "", fmt.Errorf("bullet-public: %w", err)
	}
	if bullet.Data.Token == "" || len(bullet.Data.InstanceServers) == 0 {
		return "", errors.New("bullet-public: no instance servers")
	}

	connectID := strconv.FormatInt(time.Now().UnixNano(), 10)
	return bullet.Data.InstanceServers[0].Endpoint +
		"?token=" + bullet.Data.Token + "&connectId=" + connectID, nil
}
