package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pelohub/internal/analysislog"
	"pelohub/internal/audio"
	"pelohub/internal/cache"
	"pelohub/internal/log"
)

// isRemote reports whether ref names backend-hosted audio rather than a
// local file.
func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "/static/")
}

// readSource loads audio from a local path or a backend sample URL. The
// returned name is what format detection and the analysis log see.
func (a *app) readSource(ctx context.Context, ref string) ([]byte, string, error) {
	if isRemote(ref) {
		data, err := a.client.FetchSample(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		return data, path.Base(audio.StripURLSuffix(ref)), nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, filepath.Base(ref), nil
}

// loadLog restores the persisted analysis log. A corrupt snapshot is
// discarded with a warning; the log starts empty.
func (a *app) loadLog() (*analysislog.Log, error) {
	l := analysislog.New()
	store, err := a.openCache()
	if err != nil {
		return nil, err
	}
	data, ok, err := store.Get(cache.KeyAnalysisLog)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := l.Restore(data); err != nil {
			log.Warnf("Logs: discarding unreadable history: %v", err)
		}
	}
	return l, nil
}

func (a *app) saveLog(l *analysislog.Log) error {
	store, err := a.openCache()
	if err != nil {
		return err
	}
	data, err := l.MarshalJSON()
	if err != nil {
		return err
	}
	return store.Set(cache.KeyAnalysisLog, data)
}
