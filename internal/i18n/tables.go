package i18n

var tables = map[string]map[string]string{
	"id": {
		"dash.title":          "Ringkasan Penelitian",
		"dash.status":         "Status Proyek:",
		"dash.stat.samples":   "Total Sampel",
		"dash.stat.accuracy":  "Akurasi Tertinggi",
		"dash.stat.inference": "Waktu Inferensi",
		"dash.stat.error":     "Tingkat Eror",
		"dash.top_model":      "Model Terbaik",
		"dash.activity":       "Aktivitas Terbaru",

		"live.select_engine": "Pilih Mesin",
		"live.upload":        "Unggah Berkas",
		"live.mic":           "Mikrofon",
		"live.recording":     "Merekam...",
		"live.rec_hint":      "Silakan bicara dengan jelas selama minimal 3 detik",
		"live.ready":         "Siap untuk Inferensi",
		"live.processing":    "Memproses...",
		"live.results":       "Hasil Prediksi",
		"live.completed":     "Selesai",
		"live.via":           "via",
		"live.model_class":   "Klasifikasi Model",
		"live.conf":          "Keyakinan",
		"live.severity":      "Tingkat Keparahan",
		"live.clear":         "Hapus Riwayat",

		"player.playing": "Memutar",
		"player.paused":  "Dijeda",
		"player.stopped": "Berhenti",
		"player.help":    "spasi putar/jeda • ←/→ geser • 0-9 lompat • s berhenti • q keluar",

		"logs.title":       "Log Analisis",
		"logs.subtitle":    "Riwayat sesi prediksi dan metrik sinyal",
		"logs.empty":       "Belum ada riwayat analisis",
		"logs.empty_sub":   "Jalankan prediksi di menu Prediksi Langsung untuk melihat laporan detail di sini.",
		"logs.col.time":    "Waktu",
		"logs.col.engine":  "Mesin Digunakan",
		"logs.col.source":  "Sumber / Berkas",
		"logs.col.signal":  "Info Sinyal",
		"logs.col.metrics": "Metrik Akustik",
		"logs.col.pred":    "Prediksi",
		"logs.cleared":     "Riwayat analisis dihapus",

		"eval.title":         "Evaluasi Model",
		"eval.col.model":     "Model",
		"eval.col.dataset":   "Dataset",
		"eval.col.accuracy":  "Akurasi",
		"eval.col.inference": "Inferensi",
		"eval.col.training":  "Waktu Training",
		"eval.col.params":    "Parameter",
		"eval.col.size":      "Ukuran",
		"eval.stale":         "Menampilkan data tersimpan; pembaruan gagal",

		"error.decode":     "Gagal membaca berkas audio. Gunakan format yang didukung (WAV, MP3).",
		"error.network":    "Gagal terhubung ke Backend API. Pastikan server berjalan di %s",
		"error.permission": "Akses mikrofon ditolak.",
		"error.malformed":  "Backend mengirim data yang tidak lengkap (%s).",

		"eda.title":      "Dataset & EDA",
		"eda.dysarthric": "Disartria",
		"eda.control":    "Kontrol",

		"gen.dysarthric":     "Disartria",
		"gen.non_dysarthric": "Non-Disartria",
		"gen.low":            "Rendah",
		"gen.mid":            "Sedang",
		"gen.high":           "Tinggi",
		"gen.none":           "Tidak Ada",
	},
	"en": {
		"dash.title":          "Research Overview",
		"dash.status":         "Project Status:",
		"dash.stat.samples":   "Total Samples",
		"dash.stat.accuracy":  "Top Accuracy",
		"dash.stat.inference": "Inference Time",
		"dash.stat.error":     "Error Rate",
		"dash.top_model":      "Top Model",
		"dash.activity":       "Recent Activity",

		"live.select_engine": "Select Engine",
		"live.upload":        "Upload File",
		"live.mic":           "Microphone",
		"live.recording":     "Recording...",
		"live.rec_hint":      "Please speak clearly for at least 3 seconds",
		"live.ready":         "Ready for Inference",
		"live.processing":    "Processing...",
		"live.results":       "Prediction Results",
		"live.completed":     "Completed",
		"live.via":           "via",
		"live.model_class":   "Model Classification",
		"live.conf":          "Confidence",
		"live.severity":      "Predicted Severity",
		"live.clear":         "Clear History",

		"player.playing": "Playing",
		"player.paused":  "Paused",
		"player.stopped": "Stopped",
		"player.help":    "space play/pause • ←/→ seek • 0-9 jump • s stop • q quit",

		"logs.title":       "Analysis Logs",
		"logs.subtitle":    "History of prediction sessions and signal metrics",
		"logs.empty":       "No analysis history yet",
		"logs.empty_sub":   "Run a prediction in the Live Prediction menu to see detailed analysis reports here.",
		"logs.col.time":    "Timestamp",
		"logs.col.engine":  "Engine Used",
		"logs.col.source":  "Source / File",
		"logs.col.signal":  "Signal Info",
		"logs.col.metrics": "Acoustic Metrics",
		"logs.col.pred":    "Prediction",
		"logs.cleared":     "Analysis history cleared",

		"eval.title":         "Model Evaluation",
		"eval.col.model":     "Model",
		"eval.col.dataset":   "Dataset",
		"eval.col.accuracy":  "Accuracy",
		"eval.col.inference": "Inference",
		"eval.col.training":  "Training Time",
		"eval.col.params":    "Params",
		"eval.col.size":      "Size",
		"eval.stale":         "Showing cached data; refresh failed",

		"error.decode":     "Failed to decode audio file. Please use a supported format (WAV, MP3).",
		"error.network":    "Could not reach the backend API. Make sure the server is running at %s",
		"error.permission": "Microphone access denied.",
		"error.malformed":  "The backend returned incomplete data (%s).",

		"eda.title":      "Dataset & EDA",
		"eda.dysarthric": "Dysarthric",
		"eda.control":    "Control",

		"gen.dysarthric":     "Dysarthric",
		"gen.non_dysarthric": "Non-Dysarthric",
		"gen.low":            "Low",
		"gen.mid":            "Mid",
		"gen.high":           "High",
		"gen.none":           "None",
	},
}
