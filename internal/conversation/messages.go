package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/superbot/internal/ledger"
)

const (
	msgExpired = "Mode percakapan sebelumnya telah berakhir karena tidak ada aktivitas."

	msgChatProgress  = "_Memproses jawaban AI..._"
	msgImageProgress = "_Sedang membuat gambar AI..._"

	msgChatFailed    = "Maaf, tidak ada respon dari model OpenRouter."
	msgImageFailed   = "Gagal membuat gambar AI."
	msgWeatherFailed = "Maaf, terjadi kesalahan saat menghubungi server cuaca."
	msgVoiceFailed   = "Gagal membuat voice note."
	msgStickerFailed = "Gagal mengubah foto jadi stiker."

	msgDeleteUsage = "Gunakan:\n" +
		"- #del bulan <nomor> → hapus semua catatan di bulan\n" +
		"- #del <tgl-bln-thn> → hapus catatan di tanggal tertentu\n" +
		"Contoh: #del 1-5-2025"
	msgDeleteDateFormat = "Format tanggal salah. Gunakan: #del 3-8-2025 atau #del 03-08-2025"
	msgDeleteFailed     = "Maaf, terjadi kesalahan saat menghapus data."

	msgSaveDateFormat = "Format tanggal salah. Gunakan: 1-5-2025 (hari-bulan-tahun)"
	msgSaveFailed     = "Maaf, terjadi kesalahan saat menyimpan data."

	msgReportUsage  = "Gunakan: #hasil bulan <nomor_bulan>\nContoh: #hasil bulan 5"
	msgReportFailed = "Maaf, terjadi kesalahan saat membaca data."
)

func helpText(name string) string {
	lines := []string{
		"*SuperBot Menu*",
		"Halo " + name + "!",
		"*#help* — Menampilkan menu bantuan ini",
		"*#gpt <prompt>* — Tanya AI apa saja (OpenRouter). Ketik *#gpt* saja untuk masuk mode percakapan AI.",
		"*#img <prompt>* — Gambar AI dari teks (Stable Diffusion XL). Ketik *#img* saja untuk masuk mode gambar AI.",
		"*#cuaca <nama_kota>* — Info cuaca terkini (contoh: #cuaca batu)",
		"*Kirim foto* — Akan diubah jadi stiker otomatis",
		"*#vn <kode_bahasa> <teks>* — Voice note TTS multi-bahasa (contoh: #vn en hello world)",
		"*#save <tgl-bln-thn> <jumlah>* — Simpan catatan pendapatan (contoh: #save 1-5-2025 3430000)",
		"*#hasil bulan <nomor>* — Lihat semua catatan & total pendapatan di bulan tertentu",
		"*#del bulan <nomor>* — Hapus semua catatan di bulan tertentu",
		"*#del <tgl-bln-thn>* — Hapus semua catatan pada tanggal tertentu (contoh: #del 3-8-2025)",
		"*#exit* — Keluar dari mode percakapan AI/Gambar.",
		"*Kode bahasa:* id (indonesia), en (english), ja (jepang), ar (arab), es (spanyol), dll.",
	}
	return strings.Join(lines, "\n")
}

func exitText(name string, left Mode) string {
	if !left.Sticky() {
		return fmt.Sprintf("Halo %s, Anda tidak sedang dalam mode percakapan.", name)
	}
	return fmt.Sprintf("Baik, %s. Anda telah keluar dari mode %s.", name, left.Label())
}

func enterChatText(name string) string {
	return fmt.Sprintf("Halo %s, Anda telah masuk mode percakapan AI. Silakan ketik pertanyaan Anda. Ketik *#exit* untuk keluar.", name)
}

func enterImageText(name string) string {
	return fmt.Sprintf("Halo %s, Anda telah masuk mode pembuatan gambar AI. Silakan ketik deskripsi gambar yang Anda inginkan. Ketik *#exit* untuk keluar.", name)
}

func chatReminderText(name string) string {
	return fmt.Sprintf("Silakan ketik pertanyaan Anda, %s.", name)
}

func imageReminderText(name string) string {
	return fmt.Sprintf("Silakan ketik deskripsi gambar Anda, %s.", name)
}

func monthRangeText(name string) string {
	return fmt.Sprintf("Bulan harus angka 1–12, %s.", name)
}

func saveUsageText(name string) string {
	return fmt.Sprintf("Format salah, %s. Gunakan: #save <tgl-bln-thn> <jumlah>\nContoh: #save 1-5-2025 3430000", name)
}

func savedText(e ledger.Entry) string {
	return fmt.Sprintf("✅ Catatan disimpan:\nTanggal: %s\nJumlah: Rp %s", e.Date, ledger.FormatAmount(e.Amount))
}

func reportText(r ledger.Report) string {
	name := ledger.MonthName(r.Period.Month)
	if len(r.Entries) == 0 {
		return fmt.Sprintf("Tidak ada catatan keuangan untuk bulan %s %d.", name, r.Period.Year)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Laporan Keuangan - %s %d* 📊\n\n", name, r.Period.Year)
	for i, e := range r.Entries {
		fmt.Fprintf(&b, "(%d) %s → Rp %s\n", i+1, e.Date, ledger.FormatAmount(e.Amount))
	}
	fmt.Fprintf(&b, "\n*Total Pendapatan:* Rp %s", ledger.FormatAmount(r.Total))
	return b.String()
}

func monthDeletedText(p ledger.Period, removed int) string {
	if removed == 0 {
		return fmt.Sprintf("Tidak ada catatan di bulan %d %d untuk dihapus.", p.Month, p.Year)
	}
	return fmt.Sprintf("✅ Berhasil menghapus %d catatan dari bulan %d %d.", removed, p.Month, p.Year)
}

func dateDeletedText(d ledger.DateDeletion) string {
	switch {
	case !d.PeriodFound:
		return fmt.Sprintf("Tidak ada catatan pada tanggal %s.", d.Date)
	case d.Removed == 0:
		return fmt.Sprintf("Tidak ada catatan pada tanggal %s yang ditemukan.", d.Date)
	default:
		return fmt.Sprintf("✅ Berhasil menghapus %d catatan dari tanggal %s", d.Removed, d.Date)
	}
}

func weatherUsageText(name string) string {
	return fmt.Sprintf("Format salah, %s. Contoh: #cuaca malang", name)
}

func weatherProgressText(city string) string {
	return fmt.Sprintf("_Mencari data cuaca untuk %s..._", city)
}

func voiceUsageText(name string) string {
	return fmt.Sprintf("Format salah, %s. Contoh: #vn id selamat pagi dunia", name)
}

func voiceMissingText(name string) string {
	return fmt.Sprintf("Tulis kalimat setelah kode bahasa, %s. Contoh: #vn en hello world", name)
}

func voiceProgressText(lang string) string {
	return fmt.Sprintf("_Membuat voice (%s)..._", lang)
}

func stickerIntroText(name string) string {
	return fmt.Sprintf("Ini stiker Anda, %s!", name)
}
