package domain

import "time"

// Mode identifies which conversion pipeline a session is running.
type Mode string

const (
	ModeNone       Mode = ""
	ModeTextToCard Mode = "text_to_card"
	ModeCvV1       Mode = "cv_v1"
	ModeCvV2       Mode = "cv_v2"
	ModeCardToText Mode = "card_to_text"
	ModeMergeText  Mode = "merge_text"
	ModeMergeCard  Mode = "merge_card"
)

// AcceptsCards reports whether uploads for the mode are card-format files.
func (m Mode) AcceptsCards() bool {
	return m == ModeCardToText || m == ModeMergeCard
}

// CollectsUploads reports whether the mode starts with an upload window.
func (m Mode) CollectsUploads() bool {
	switch m {
	case ModeCvV1, ModeCvV2, ModeCardToText, ModeMergeText, ModeMergeCard:
		return true
	default:
		return false
	}
}

// StateKind enumerates the waiting states of a session. Processing is a
// transient phase and is never stored on a session.
type StateKind string

const (
	StateIdle                     StateKind = "idle"
	StateAwaitingRawText          StateKind = "awaiting_raw_text"
	StateAwaitingUploads          StateKind = "awaiting_uploads"
	StateAwaitingOutputModeChoice StateKind = "awaiting_output_mode_choice"
	StateAwaitingContactName      StateKind = "awaiting_contact_name"
	StateAwaitingCustomSeed       StateKind = "awaiting_custom_seed"
	StateAwaitingBatchFormatLine  StateKind = "awaiting_batch_format_line"
	StateAwaitingMergeOutputName  StateKind = "awaiting_merge_output_name"
	StateProcessing               StateKind = "processing"
)

// NamingChoice selects how output files of a CV V1 run are named.
type NamingChoice string

const (
	NamingDefault NamingChoice = "default"
	NamingCustom  NamingChoice = "custom"
)

// Choice is a menu selection delivered by the gateway (button or command).
type Choice string

const (
	ChoiceStart         Choice = "start"
	ChoiceMain          Choice = "main"
	ChoiceBackToMain    Choice = "back_to_main"
	ChoiceTextToCard    Choice = "text_to_vcf"
	ChoiceCvMenu        Choice = "cv_txt_to_vcf"
	ChoiceCvV1          Choice = "cv_v1"
	ChoiceCvV2          Choice = "cv_v2"
	ChoiceCardToText    Choice = "vcf_to_txt"
	ChoiceMergeMenu     Choice = "merge_menu"
	ChoiceMergeText     Choice = "merge_txt"
	ChoiceMergeCard     Choice = "merge_vcf"
	ChoiceOutputDefault Choice = "output_default"
	ChoiceOutputCustom  Choice = "output_custom"
)

// StatusHandle references an editable status message owned by the gateway.
type StatusHandle struct {
	SessionKey string `json:"session_key"`
	MessageID  int64  `json:"message_id"`
}

// IsZero reports whether the handle points at nothing.
func (h StatusHandle) IsZero() bool {
	return h.MessageID == 0
}

// Button is one inline keyboard button.
type Button struct {
	Label  string `json:"label"`
	Choice Choice `json:"choice"`
}

// MessageOptions carries presentation hints for outbound text.
type MessageOptions struct {
	Buttons  [][]Button `json:"buttons,omitempty"`
	Markdown bool       `json:"markdown,omitempty"`
}

// JobSummary describes one completed conversion pipeline.
type JobSummary struct {
	ID          string    `json:"id"`
	SessionKey  string    `json:"session_key"`
	Mode        Mode      `json:"mode"`
	FilesIn     int       `json:"files_in"`
	FilesOut    int       `json:"files_out"`
	FilesFailed int       `json:"files_failed"`
	Entries     int       `json:"entries"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
