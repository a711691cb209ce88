// SPDX-License-Identifier: MIT
/*
Package apperr defines the failure taxonomy shared by the decode, fetch and
capture boundaries. Each failure is converted into local state plus a single
user-facing notification; none is fatal to the process.

  - DecodeError: unsupported or corrupt audio bytes.
  - NetworkError: an API was unreachable or answered non-2xx.
  - PermissionError: the capture device could not be opened.
  - MalformedDataError: a backend payload lacked the fields a view needs.
*/
package apperr

import (
	"errors"
	"fmt"
)

// DecodeError reports audio bytes that could not be turned into a signal.
type DecodeError struct {
	Format string // Detected container label, e.g. "WAV", "OGG".
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode audio: %v", e.Err)
	}
	return fmt.Sprintf("decode %s audio: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NetworkError reports a failed request against the inference backend.
// BaseURL is kept so the notification can name the expected location.
type NetworkError struct {
	Op         string // e.g. "predict", "evaluation details".
	BaseURL    string
	StatusCode int // 0 when the request never got a response.
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend at %s answered %d: %v", e.Op, e.BaseURL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: backend at %s unreachable: %v", e.Op, e.BaseURL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PermissionError reports a capture device that refused to open.
type PermissionError struct {
	Device string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone access denied (%s): %v", e.Device, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// MalformedDataError reports a payload missing an expected field.
type MalformedDataError struct {
	Field string
	Err   error
}

func (e *MalformedDataError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed payload: missing %s", e.Field)
	}
	return fmt.Sprintf("malformed payload (%s): %v", e.Field, e.Err)
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// Translator looks up user-facing text. *i18n.Translator implements it.
type Translator interface {
	T(key string) string
}

// Message keys for the notices. Values containing %s take one argument.
const (
	KeyDecode     = "error.decode"
	KeyNetwork    = "error.network"
	KeyPermission = "error.permission"
	KeyMalformed  = "error.malformed"
)

var english = map[string]string{
	KeyDecode:     "Failed to decode audio file. Please use a supported format (WAV, MP3).",
	KeyNetwork:    "Could not reach the backend API. Make sure the server is running at %s",
	KeyPermission: "Microphone access denied.",
	KeyMalformed:  "The backend returned incomplete data (%s).",
}

type englishText struct{}

func (englishText) T(key string) string { return english[key] }

// Notice renders err as the one-line English message shown to the user.
func Notice(err error) string {
	return NoticeIn(englishText{}, err)
}

// NoticeIn renders err with the messages of tr. A key tr does not know falls
// back to English.
func NoticeIn(tr Translator, err error) string {
	var (
		decodeErr *DecodeError
		netErr    *NetworkError
		permErr   *PermissionError
		dataErr   *MalformedDataError
	)
	text := func(key string) string {
		if msg := tr.T(key); msg != "" && msg != key {
			return msg
		}
		return english[key]
	}
	switch {
	case errors.As(err, &decodeErr):
		return text(KeyDecode)
	case errors.As(err, &netErr):
		return fmt.Sprintf(text(KeyNetwork), netErr.BaseURL)
	case errors.As(err, &permErr):
		return text(KeyPermission)
	case errors.As(err, &dataErr):
		return fmt.Sprintf(text(KeyMalformed), dataErr.Field)
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
