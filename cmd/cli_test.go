package cmd

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pelohub/pkg/utils"
)

const evaluationFixture = `{
	"summary": [
		{"model": "cnn", "dataset": "uaspeech", "accuracy": 0.955, "inference_time_ms": 12.5},
		{"model": "vgg", "dataset": "uaspeech"}
	],
	"efficiency": {"cnn": {"params": "1.2M", "size": "4.8 MB"}},
	"details": {
		"cnn_uaspeech": {
			"cm": [[10, 1], [2, 9]],
			"roc": [{"x": 0, "y": 0}, {"x": 0.1, "y": 0.8}, {"x": 1, "y": 1}]
		},
		"vgg_uaspeech": {
			"roc": [{"x": 0, "y": 0}, {"x": 0.15, "y": 0.6}, {"x": 1, "y": 1}]
		}
	}
}`

// run executes one command line and closes the cache afterwards.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	a := &app{}
	root := newRootCommand(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--lang", "en", "--log-level", "error"}, args...))
	err := root.Execute()
	if cerr := a.teardown(); cerr != nil {
		t.Errorf("teardown: %v", cerr)
	}
	return stdout.String(), stderr.String(), err
}

func writeWAV(t *testing.T, dir, name string) string {
	t.Helper()
	samples := utils.GenerateSineWave(16000, 16000, 220, 0.5)
	data, err := utils.EncodeWAV([][]float32{samples}, 16000, 16)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"sehat","gpu_tersedia":false}`)
	})
	mux.HandleFunc("/predict/cnn_stft", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, `{"detail":"file missing"}`, http.StatusUnprocessableEntity)
			return
		}
		io.WriteString(w, `{"prediksi":"Dysarthric","confidence":"93.00%"}`)
	})
	mux.HandleFunc("/api/evaluation/details", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, evaluationFixture)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	srv := backend(t)
	out, _, err := run(t, "status", "--api", srv.URL, "--no-cache")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "sehat") || !strings.Contains(out, "healthy") {
		t.Errorf("status output = %q", out)
	}
}

func TestStatusUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, stderr, err := run(t, "status", "--api", url, "--no-cache")
	if err == nil {
		t.Fatal("status against a closed server succeeded")
	}
	if !IsReported(err) {
		t.Errorf("error %v was not reported", err)
	}
	if !strings.Contains(stderr, "Could not reach the backend API") || !strings.Contains(stderr, url) {
		t.Errorf("stderr = %q, want the backend notice naming %s", stderr, url)
	}
}

func TestPredictRecordsHistory(t *testing.T) {
	srv := backend(t)
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	wav := writeWAV(t, dir, "speaker01.wav")

	out, stderr, err := run(t, "predict", wav, "--api", srv.URL, "--cache-dir", cacheDir)
	if err != nil {
		t.Fatalf("predict: %v (stderr %q)", err, stderr)
	}
	for _, want := range []string{"CNN-STFT v2", "Dysarthric", "93.0%", "High"} {
		if !strings.Contains(out, want) {
			t.Errorf("predict output missing %q:\n%s", want, out)
		}
	}

	out, _, err = run(t, "logs", "--plain", "--cache-dir", cacheDir)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out, "speaker01.wav") || !strings.Contains(out, "16000Hz") {
		t.Errorf("logs output = %q", out)
	}

	if _, _, err := run(t, "logs", "--clear", "--cache-dir", cacheDir); err != nil {
		t.Fatalf("logs --clear: %v", err)
	}
	out, _, _ = run(t, "logs", "--plain", "--cache-dir", cacheDir)
	if !strings.Contains(out, "No analysis history yet") {
		t.Errorf("logs after clear = %q", out)
	}
}

func TestPredictDecodeFailure(t *testing.T) {
	srv := backend(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(bad, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := run(t, "predict", bad, "--api", srv.URL, "--no-cache")
	if err == nil {
		t.Fatal("predict of a corrupt file succeeded")
	}
	if !strings.Contains(stderr, "Failed to decode audio file") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestNoticeLanguage(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(bad, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"decode id", []string{"predict", bad, "--lang", "id"}, "Gagal membaca berkas audio"},
		{"decode en", []string{"predict", bad}, "Failed to decode audio file"},
		{"network id", []string{"status", "--api", url, "--lang", "id"}, "Gagal terhubung ke Backend API. Pastikan server berjalan di " + url},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := run(t, append(tt.args, "--no-cache")...)
			if err == nil {
				t.Fatal("command succeeded")
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want %q", stderr, tt.want)
			}
		})
	}
}

func TestEvaluationServesStaleCache(t *testing.T) {
	srv := backend(t)
	cacheDir := t.TempDir()

	out, _, err := run(t, "evaluation", "--api", srv.URL, "--cache-dir", cacheDir, "--model", "cnn")
	if err != nil {
		t.Fatalf("evaluation: %v", err)
	}
	for _, want := range []string{"uaspeech", "95.50%", "1.2M", "N/A", "cnn_uaspeech"} {
		if !strings.Contains(out, want) {
			t.Errorf("evaluation output missing %q:\n%s", want, out)
		}
	}

	srv.Close()
	out, stderr, err := run(t, "evaluation", "--api", srv.URL, "--cache-dir", cacheDir, "--roc-at", "0.12")
	if err != nil {
		t.Fatalf("evaluation with backend down: %v", err)
	}
	if !strings.Contains(stderr, "Showing cached data") {
		t.Errorf("stderr = %q, want stale notice", stderr)
	}
	cnn, vgg := strings.Index(out, "x=0.100 y=0.800"), strings.Index(out, "x=0.150 y=0.600")
	if cnn < 0 || vgg < 0 || cnn > vgg {
		t.Errorf("ROC hits not ordered by y:\n%s", out)
	}

	out, _, err = run(t, "evaluation", "--api", srv.URL, "--cache-dir", cacheDir, "--offline", "--sweep", "3")
	if err != nil {
		t.Fatalf("evaluation --sweep: %v", err)
	}
	for _, row := range []string{"0.000   0.000   0.000", "0.500   0.800   0.600", "1.000   1.000   1.000"} {
		if !strings.Contains(out, row) {
			t.Errorf("sweep missing row %q:\n%s", row, out)
		}
	}
}

func TestEvaluationWithoutCacheOrBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, stderr, err := run(t, "evaluation", "--api", srv.URL, "--no-cache")
	if err == nil {
		t.Fatal("evaluation succeeded with nothing to show")
	}
	if !strings.Contains(stderr, srv.URL) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestInspectWritesSpectrogram(t *testing.T) {
	dir := t.TempDir()
	wav := writeWAV(t, dir, "tone.wav")
	png := filepath.Join(dir, "out", "tone.png")

	out, stderr, err := run(t, "inspect", wav, "--no-cache", "--png", png, "--cursor", "0.5", "--source", "synthetic")
	if err != nil {
		t.Fatalf("inspect: %v (stderr %q)", err, stderr)
	}
	for _, want := range []string{"WAV (16-bit)", "16000 Hz", "Mono", "0:01", "formant1", "synthetic"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
	info, err := os.Stat(png)
	if err != nil || info.Size() == 0 {
		t.Errorf("spectrogram not written: %v", err)
	}
}

func TestInspectScalesSpectrogram(t *testing.T) {
	dir := t.TempDir()
	wav := writeWAV(t, dir, "tone.wav")
	out := filepath.Join(dir, "tone.png")

	_, stderr, err := run(t, "inspect", wav, "--no-cache", "--png", out,
		"--width", "120", "--height", "40", "--window", "hamming")
	if err != nil {
		t.Fatalf("inspect: %v (stderr %q)", err, stderr)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 40 {
		t.Errorf("PNG bounds = %v, want 120x40", b)
	}

	_, stderr, err = run(t, "inspect", wav, "--no-cache", "--window", "kaiser")
	if err == nil {
		t.Fatal("inspect with an unknown window succeeded")
	}
	if !strings.Contains(stderr, "kaiser") {
		t.Errorf("stderr = %q, want the window named", stderr)
	}
}

func TestPredictSampleURLWithQuery(t *testing.T) {
	srv := backend(t)
	samples := utils.GenerateSineWave(16000, 16000, 220, 0.5)
	data, err := utils.EncodeWAV([][]float32{samples}, 16000, 16)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/static/samples/speaker.dat", func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	})
	mux.Handle("/", srv.Config.Handler)
	api := httptest.NewServer(mux)
	defer api.Close()

	for _, ref := range []string{
		api.URL + "/static/samples/speaker.dat?v=2",
		"/static/samples/speaker.dat#start",
	} {
		out, stderr, err := run(t, "predict", ref, "--api", api.URL, "--no-cache")
		if err != nil {
			t.Fatalf("predict %s: %v (stderr %q)", ref, err, stderr)
		}
		if !strings.Contains(out, "Dysarthric") {
			t.Errorf("predict %s output = %q", ref, out)
		}
	}
}

func TestPredictListModels(t *testing.T) {
	out, _, err := run(t, "predict", "--list-models", "--no-cache")
	if err != nil {
		t.Fatalf("predict --list-models: %v", err)
	}
	for _, id := range []string{"cnn", "mobilenet", "resnet", "vgg"} {
		if !strings.Contains(out, id) {
			t.Errorf("model list missing %s:\n%s", id, out)
		}
	}
}

func TestPredictEndToEnd(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "probabilities",
			response: `{"model":"cnn_stft","prediksi":"Dysarthric","confidence":"93.0%","detail_probabilitas":{"Dysarthric":0.93,"Control":0.07}}`,
			want:     []string{"speaker.wav", "Dysarthric 93.0% (High)"},
		},
		{
			name:     "percentage only",
			response: `{"prediksi":"Control","confidence":"88.0%"}`,
			want:     []string{"speaker.wav", "Non-Dysarthric 88.0% (None)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/predict/cnn_stft" {
					http.NotFound(w, r)
					return
				}
				io.WriteString(w, tt.response)
			}))
			defer srv.Close()

			dir := t.TempDir()
			cacheDir := filepath.Join(dir, "cache")
			samples := utils.GenerateSineWave(48000, 16000, 180, 0.4)
			data, err := utils.EncodeWAV([][]float32{samples}, 16000, 16)
			if err != nil {
				t.Fatalf("EncodeWAV: %v", err)
			}
			wav := filepath.Join(dir, "speaker.wav")
			if err := os.WriteFile(wav, data, 0o644); err != nil {
				t.Fatal(err)
			}

			if _, stderr, err := run(t, "predict", wav, "--model", "cnn", "--api", srv.URL, "--cache-dir", cacheDir); err != nil {
				t.Fatalf("predict: %v (stderr %q)", err, stderr)
			}
			out, _, err := run(t, "logs", "--plain", "--cache-dir", cacheDir)
			if err != nil {
				t.Fatalf("logs: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("log %q missing %q", out, want)
				}
			}
		})
	}
}
