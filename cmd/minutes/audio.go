package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"minutes/internal/config"
	"minutes/internal/services/transcribe"
)

// audioExtensions lists the recording formats the upload form accepted.
var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

func isAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func readAudio(path string) (transcribe.Audio, error) {
	resolved, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return transcribe.Audio{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return transcribe.Audio{}, fmt.Errorf("read audio: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(resolved))
	contentType := audioExtensions[ext]
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	return transcribe.Audio{
		Filename:    filepath.Base(resolved),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func openText(path string) (*os.File, string, error) {
	resolved, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("open transcript: %w", err)
	}
	return file, filepath.Base(resolved), nil
}
