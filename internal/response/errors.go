package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempt eligibility ───────────────────────────────────────────
	ErrExamNotConfigured  ErrCode = "EXAM_NOT_CONFIGURED"
	ErrExamNotStarted     ErrCode = "EXAM_NOT_STARTED"
	ErrExamEnded          ErrCode = "EXAM_ENDED"
	ErrMaxAttemptsReached ErrCode = "MAX_ATTEMPTS_REACHED"

	// ─── Attempt state ─────────────────────────────────────────────────
	ErrAttemptNotFound  ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAlreadyCompleted ErrCode = "ATTEMPT_ALREADY_COMPLETED"
	ErrSubmitLocked     ErrCode = "SUBMIT_LOCKED"

	// ─── Exam administration ───────────────────────────────────────────
	ErrExamNotPublished ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotDraft     ErrCode = "EXAM_NOT_DRAFT"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email/NISN atau kata sandi salah."
	case ErrSessionActive:
		return "Anda sudah login di perangkat lain."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Attempt eligibility ───────────────────────────────────────────
	case ErrExamNotConfigured:
		return "Ujian ini belum dikonfigurasi."
	case ErrExamNotStarted:
		return "Ujian ini belum dimulai."
	case ErrExamEnded:
		return "Waktu ujian ini telah berakhir."
	case ErrMaxAttemptsReached:
		return "Batas maksimal percobaan ujian telah tercapai."

	// ─── Attempt state ─────────────────────────────────────────────────
	case ErrAttemptNotFound:
		return "Percobaan ujian tidak ditemukan."
	case ErrAlreadyCompleted:
		return "Percobaan ujian ini sudah diselesaikan."
	case ErrSubmitLocked:
		return "Pengumpulan belum dibuka. Silakan tunggu hingga menit terakhir."

	// ─── Exam administration ───────────────────────────────────────────
	case ErrExamNotPublished:
		return "Ujian ini belum dipublikasikan."
	case ErrExamNotDraft:
		return "Ujian ini tidak dalam status DRAFT."
	case ErrNoQuestions:
		return "Ujian ini tidak memiliki pertanyaan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
