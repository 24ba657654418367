package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	rutubeBaseURL   = "https://rutube.ru/api"
	rutubeUploadURL = "https://rutube.ru/api/video"
)

// RuTube uploads and downloads videos through the RuTube API.
type RuTube struct {
	AccessToken string
}

func (r RuTube) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + r.AccessToken,
		"Content-Type":  "application/json",
	}
}

// Upload creates a hidden video entry, uploads the file to the
// returned URL, then polls until RuTube finishes processing it.
// remoteID is RuTube's video_id.
func (r RuTube) Upload(ctx context.Context, path string) (string, error) {
	videoID, uploadURL, err := r.createVideoEntry(ctx, path)
	if err != nil {
		return "", fmt.Errorf("platform/rutube: create video entry: %w", err)
	}
	if err := r.uploadFile(ctx, path, uploadURL); err != nil {
		return "", fmt.Errorf("platform/rutube: upload file: %w", err)
	}
	if err := r.waitForProcessing(ctx, videoID); err != nil {
		return "", fmt.Errorf("platform/rutube: wait for processing: %w", err)
	}
	return videoID, nil
}

// Download retrieves the direct file URL for remoteID and streams it
// to outputPath.
func (r RuTube) Download(ctx context.Context, remoteID, outputPath string) error {
	info, err := r.videoInfo(ctx, remoteID)
	if err != nil {
		return fmt.Errorf("platform/rutube: video info: %w", err)
	}
	if info.VideoURL == "" {
		return fmt.Errorf("platform/rutube: no direct video url available")
	}
	return downloadToFile(ctx, info.VideoURL, outputPath)
}

func (r RuTube) createVideoEntry(ctx context.Context, path string) (videoID, uploadURL string, err error) {
	payload, err := json.Marshal(map[string]any{
		"title":       baseName(path),
		"description": "",
		"category_id": 24,
		"is_hidden":   true,
	})
	if err != nil {
		return "", "", err
	}

	body, err := doRequest(ctx, http.MethodPost, rutubeUploadURL, bytesReader(payload), r.headers())
	if err != nil {
		return "", "", err
	}

	var parsed struct {
		ID              string `json:"id"`
		VideoUploadURL  string `json:"video_upload_url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", err
	}
	return parsed.ID, parsed.VideoUploadURL, nil
}

func (r RuTube) uploadFile(ctx context.Context, path, uploadURL string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = doRequest(ctx, http.MethodPut, uploadURL, f, map[string]string{
		"Authorization": "Bearer " + r.AccessToken,
	})
	return err
}

func (r RuTube) waitForProcessing(ctx context.Context, videoID string) error {
	return pollUntilReady(ctx, 5*time.Second, func() (bool, error) {
		info, err := r.videoInfo(ctx, videoID)
		if err != nil {
			return false, err
		}
		return info.Status == "ready", nil
	})
}

type rutubeVideoInfo struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
}

func (r RuTube) videoInfo(ctx context.Context, videoID string) (rutubeVideoInfo, error) {
	body, err := doRequest(ctx, http.MethodGet, rutubeBaseURL+"/video/"+videoID+"/", nil, r.headers())
	if err != nil {
		return rutubeVideoInfo{}, err
	}
	var info rutubeVideoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return rutubeVideoInfo{}, err
	}
	return info, nil
}
