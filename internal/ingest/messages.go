package ingest

import (
	"errors"

	"github.com/anandaputra/uangku/internal/ai"
)

// User-facing messages, in the application locale. Extraction and
// validation failures deliberately share one message: both mean "the AI
// could not turn your sentence into a transaction, reword and retry",
// and the distinction stays available internally via the error types.
const (
	msgEmptyInput = "Input kosong. Harap jelaskan transaksi Anda."
	msgExtraction = `Gagal memproses transaksi. Coba gunakan kalimat yang berbeda, contohnya "Saya bayar 50rb untuk makan malam di restoran".`
	msgPersist    = "Gagal menyimpan transaksi ke database."
	msgUnknown    = "Terjadi kesalahan. Silakan coba lagi."
)

// UserMessage maps a pipeline error to the message shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return msgEmptyInput
	case errors.Is(err, ErrExtractionFailed), errors.Is(err, ai.ErrIncompleteExtraction):
		return msgExtraction
	case errors.Is(err, ErrPersistFailed):
		return msgPersist
	default:
		return msgUnknown
	}
}
