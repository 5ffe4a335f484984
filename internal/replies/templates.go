package replies

// Key names one reply template.
type Key string

const (
	MainMenu         Key = "main_menu"
	CvMenu           Key = "cv_menu"
	MergeMenu        Key = "merge_menu"
	ComingSoon       Key = "coming_soon"
	TextInstruction  Key = "text_instruction"
	UploadPrompt     Key = "upload_prompt"
	NoPendingText    Key = "no_pending_text"
	NoPendingFile    Key = "no_pending_file"
	UploadStatus     Key = "upload_status"
	UploadComplete   Key = "upload_complete"
	DefaultSelected  Key = "default_selected"
	CustomSelected   Key = "custom_selected"
	SeedPreview      Key = "seed_preview"
	InvalidSeed      Key = "invalid_seed"
	EmptyContactName Key = "empty_contact_name"
	EmptyOutputName  Key = "empty_output_name"
	InvalidFormat    Key = "invalid_format"
	RawTextCaption   Key = "raw_text_caption"
	UnsupportedFile  Key = "unsupported_file"
	Undecodable      Key = "undecodable"
	NoData           Key = "no_data"
	TooManyFiles     Key = "too_many_files"
	FileTooLarge     Key = "file_too_large"
	MissingData      Key = "missing_data"
	MalformedBatch   Key = "malformed_batch"
	Insufficient     Key = "insufficient_data"
	Processing       Key = "processing"
	Summary          Key = "summary"
	InternalError    Key = "internal_error"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"

const batchFormatHelp = "`nama_file,nama kontak,jumlah per file,jumlah file`\n" +
	"💡 *Contoh:* `pudidi1,Pudidi,100,5`"

// Indonesian reply texts, Telegram legacy Markdown. Values that come from
// users (file names, contact names) go through the md filter.
var sources = map[Key]string{
	MainMenu: "🤖 *Selamat datang di VCF Generator Bot!*\n\nPilih menu di bawah ini:",

	CvMenu: "📁 *CV TXT TO VCF - Pilih Mode:*\n\n" +
		"🔧 *V1* - Upload TXT, pilih output mode (Default/Custom)\n" +
		"🔧 *V2* - Upload TXT (maks {{ max_files }} file), gabungkan lalu bagi per batch",

	MergeMenu: "🔗 *MERGE FILE - Pilih jenis file:*\n\n" +
		"📄 *MERGE TXT* - Gabungkan beberapa file TXT jadi satu\n" +
		"📇 *MERGE VCF* - Gabungkan beberapa file VCF jadi satu",

	ComingSoon: "🚧 Fitur ini akan segera hadir!\n\nGunakan /start untuk kembali ke menu utama.",

	TextInstruction: "📝 *Format input:*\n```\nnama_file_vcf\n\nnama kontak\nnomer telepon\n\nnama kontak\nnomer telepon\n```",

	UploadPrompt: "📁 *Upload file {{ ext | upcase }} Anda*\n\n" +
		"• Upload satu atau beberapa file sekaligus{% if max_files > 0 %} (maks {{ max_files }} file){% endif %}\n" +
		"• Bot akan otomatis mendeteksi ketika upload selesai",

	NoPendingText: "Gunakan /start untuk melihat menu atau pilih salah satu fitur yang tersedia.",
	NoPendingFile: "❌ Silakan gunakan menu untuk memulai proses konversi.",

	UploadStatus: "📤 *Menganalisis file...*\n\n" +
		"✅ *{{ files }} file* berhasil diproses\n" +
		"📊 *{{ entries | comma }} {{ unit }}* ditemukan\n\n" +
		"💡 _Menunggu file selanjutnya atau otomatis lanjut..._",

	UploadComplete: "🎉 *Upload Complete!*\n\n📋 *Detail File:*\n" + rule +
		"{% for f in files %}📄 *{{ f.name | md }}*: {{ f.count | comma }} {{ unit }}\n{% endfor %}" +
		"{% if more > 0 %}📄 ... dan *{{ more }} file lainnya*\n{% endif %}" +
		rule +
		"📁 *Total*: {{ total_files }} file, {{ total_entries | comma }} {{ unit }}\n\n" +
		"{% case prompt %}" +
		"{% when \"output_mode\" %}📋 *Pilih mode output:*\n\n" +
		"🔹 *Default* - Nama file VCF sama dengan file TXT\n" +
		"🔹 *Custom* - Nama file VCF sesuai input Anda\n\n" +
		"_Pilih mode yang Anda inginkan:_" +
		"{% when \"batch\" %}🔢 *{{ unique | comma }} nomor unik* setelah digabung\n\n" +
		"✍️ *Kirim format batch:*\n" + batchFormatHelp +
		"{% when \"merge_name\" %}✍️ *Ketik nama file hasil gabungan:*" +
		"{% else %}🔄 Sedang memproses..." +
		"{% endcase %}",

	DefaultSelected: "🔹 *Mode Default Dipilih*\n\n📋 *Detail File:*\n" + rule +
		"{% for f in files %}📄 *{{ f.from | md }}* → *{{ f.to | md }}*\n{% endfor %}" +
		"{% if more > 0 %}📄 ... dan *{{ more }} file lainnya*\n{% endif %}" +
		rule +
		"📁 *Total*: {{ total_files }} file, {{ total_entries | comma }} nomor\n\n" +
		"👤 *Ketik nama kontak untuk semua file VCF:*",

	CustomSelected: "🎨 *Mode Custom Dipilih*\n\n📋 *Detail:*\n" + rule +
		"📁 *{{ total_files }} file* akan diproses dengan {{ total_entries | comma }} nomor\n" +
		rule +
		"\n💡 *Contoh nama file:*\n" +
		"• pudidi1 → pudidi1.vcf, pudidi2.vcf, ..., pudidi{{ total_files }}.vcf\n" +
		"• amanai-5 → amanai-5.vcf, amanai-6.vcf, ..., amanai-{{ total_files | plus: 4 }}.vcf\n\n" +
		"📝 *Masukkan nama file (harus diakhiri angka):*",

	SeedPreview: "✅ *Nama file diterima!*\n\n📋 *Preview nama file:*\n" + rule +
		"{% for n in head %}📄 *{{ n | md }}*\n{% endfor %}" +
		"{% if last != \"\" %}📄 ... hingga *{{ last | md }}*\n{% endif %}" +
		rule +
		"📁 *Total*: {{ total_files }} file\n\n" +
		"👤 *Ketik nama kontak untuk semua file VCF:*",

	InvalidSeed: "❌ Nama file harus diakhiri dengan angka!\n\n💡 *Contoh:* pudidi1, amanai-5, contact123",

	EmptyContactName: "❌ Nama kontak tidak boleh kosong!",
	EmptyOutputName:  "❌ Nama file tidak boleh kosong!",

	InvalidFormat: "❌ Format tidak valid! Pastikan format:\n```\nnama_file\n\nnama kontak\nnomer telepon\n```",

	RawTextCaption: "✅ *File {{ filename | md }} berhasil dibuat!*\n\n📊 *DETAIL:*\n" + rule +
		"{% for s in stats %}👤 {{ s.name | md }}: {{ s.count | comma }} kontak\n{% endfor %}" +
		rule +
		"🔢 *Total: {{ total | comma }} kontak*",

	UnsupportedFile: "❌ Hanya file {{ ext | upcase }} yang diperbolehkan!",
	Undecodable:     "❌ Tidak dapat membaca file {{ name | md }}",
	NoData:          "❌ Tidak ditemukan {{ unit }} dalam file {{ name | md }}",
	TooManyFiles:    "❌ Maksimal {{ max_files }} file untuk mode ini. File {{ name | md }} diabaikan.",
	FileTooLarge:    "❌ File {{ name | md }} terlalu besar (maks {{ limit | bytes }}).",
	MissingData:     "❌ Data file tidak ditemukan. Silakan mulai ulang dengan /start",

	MalformedBatch: "❌ Format batch tidak valid!\n\n✍️ *Gunakan:*\n" + batchFormatHelp,

	Insufficient: "❌ Jumlah nomor tidak cukup!\n\n" +
		"Diminta {{ per_file | comma }} nomor per file, hanya tersedia {{ available | comma }} nomor.",

	Processing: "🔄 Sedang memproses dan mengirim file {{ ext | upcase }}...",

	Summary: "🎉 *KONVERSI SELESAI!*\n\n📊 *RINGKASAN:*\n" + rule +
		"✅ *Berhasil: {{ ok }}/{{ total }} file*\n" +
		"{% if failed > 0 %}⚠️ *Gagal: {{ failed }} file*\n{% endif %}" +
		"{% if mode_label != \"\" %}🎯 *Mode: {{ mode_label }}*\n{% endif %}" +
		"{% if contact_name != \"\" %}👤 *Nama kontak: {{ contact_name | md }}*\n{% endif %}" +
		"📞 *Total: {{ entries | comma }} {{ unit }}*\n" +
		rule +
		"💡 Gunakan /start untuk konversi baru.",

	InternalError: "❌ Terjadi kesalahan saat memproses. Silakan mulai ulang dengan /start",
}
