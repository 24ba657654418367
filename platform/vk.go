package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	vkAPIVersion = "5.131"
	vkBaseURL    = "https://api.vk.com/method"
)

// VK uploads and downloads videos through the VK Video API. Uploaded
// videos are always private; this is a storage backend, not a
// publishing tool.
type VK struct {
	AccessToken string
	GroupID     string
}

// Upload follows VK's three-step flow: request an upload URL, POST the
// file to it as a multipart form, then poll until VK reports the video finished
// processing. remoteID is "<owner_id>_<video_id>".
func (v VK) Upload(ctx context.Context, path string) (string, error) {
	uploadURL, ownerID, videoID, err := v.getUploadURL(ctx)
	if err != nil {
		return "", fmt.Errorf("platform/vk: get upload url: %w", err)
	}
	if err := v.uploadFile(ctx, path, uploadURL); err != nil {
		return "", fmt.Errorf("platform/vk: upload file: %w", err)
	}
	if err := v.waitForProcessing(ctx, ownerID, videoID); err != nil {
		return "", fmt.Errorf("platform/vk: wait for processing: %w", err)
	}
	return fmt.Sprintf("%s_%s", ownerID, videoID), nil
}

// Download retrieves the direct file URL for remoteID and streams it
// to outputPath.
func (v VK) Download(ctx context.Context, remoteID, outputPath string) error {
	directURL, err := v.resolveDirectURL(ctx, remoteID)
	if err != nil {
		return fmt.Errorf("platform/vk: resolve direct url: %w", err)
	}
	return downloadToFile(ctx, directURL, outputPath)
}

func (v VK) getUploadURL(ctx context.Context) (uploadURL, ownerID, videoID string, err error) {
	q := url.Values{}
	q.Set("access_token", v.AccessToken)
	q.Set("v", vkAPIVersion)
	q.Set("is_private", "1")
	if v.GroupID != "" {
		q.Set("group_id", v.GroupID)
	}

	body, err := doRequest(ctx, http.MethodGet, vkBaseURL+"/video.save?"+q.Encode(), nil, nil)
	if err != nil {
		return "", "", "", err
	}

	var parsed struct {
		Response struct {
			UploadURL string `json:"upload_url"`
			VideoID   int    `json:"video_id"`
			OwnerID   int    `json:"owner_id"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", "", err
	}
	return parsed.Response.UploadURL, fmt.Sprint(parsed.Response.OwnerID), fmt.Sprint(parsed.Response.VideoID), nil
}

func (v VK) uploadFile(ctx context.Context, path, uploadURL string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("video_file", path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	_, err = doRequest(ctx, http.MethodPost, uploadURL, &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	return err
}

func (v VK) waitForProcessing(ctx context.Context, ownerID, videoID string) error {
	return pollUntilReady(ctx, 5*time.Second, func() (bool, error) {
		info, err := v.videoInfo(ctx, ownerID, videoID)
		if err != nil {
			return false, err
		}
		return info.Processing == 0, nil
	})
}

type vkVideoInfo struct {
	Processing int    `json:"processing"`
	Player     string `json:"player"`
	Files      struct {
		MP4HD string `json:"mp4_720"`
		MP4SD string `json:"mp4_360"`
	} `json:"files"`
}

func (v VK) videoInfo(ctx context.Context, ownerID, videoID string) (vkVideoInfo, error) {
	q := url.Values{}
	q.Set("access_token", v.AccessToken)
	q.Set("v", vkAPIVersion)
	q.Set("videos", ownerID+"_"+videoID)

	body, err := doRequest(ctx, http.MethodGet, vkBaseURL+"/video.get?"+q.Encode(), nil, nil)
	if err != nil {
		return vkVideoInfo{}, err
	}
	var parsed struct {
		Response struct {
			Items []vkVideoInfo `json:"items"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return vkVideoInfo{}, err
	}
	if len(parsed.Response.Items) == 0 {
		return vkVideoInfo{}, fmt.Errorf("platform/vk: video not found")
	}
	return parsed.Response.Items[0], nil
}

func (v VK) resolveDirectURL(ctx context.Context, remoteID string) (string, error) {
	q := url.Values{}
	q.Set("access_token", v.AccessToken)
	q.Set("v", vkAPIVersion)
	q.Set("videos", remoteID)

	body, err := doRequest(ctx, http.MethodGet, vkBaseURL+"/video.get?"+q.Encode(), nil, nil)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Response struct {
			Items []vkVideoInfo `json:"items"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Response.Items) == 0 {
		return "", fmt.Errorf("platform/vk: video not found")
	}
	best := parsed.Response.Items[0].Files.MP4HD
	if best == "" {
		best = parsed.Response.Items[0].Files.MP4SD
	}
	if best == "" {
		return "", fmt.Errorf("platform/vk: no downloadable quality available")
	}
	return best, nil
}
