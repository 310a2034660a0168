package errors

import (
	"context"
	"errors"
)

// ErrorCode classifies an error for CLI and API responses.
type ErrorCode string

const (
	ErrCodeParse             ErrorCode = "parse_error"
	ErrCodeDuplicateSpeaker  ErrorCode = "duplicate_speaker"
	ErrCodeSpeakerNotFound   ErrorCode = "speaker_not_found"
	ErrCodeRecordNotFound    ErrorCode = "record_not_found"
	ErrCodeCaseNotFound      ErrorCode = "case_not_found"
	ErrCodeEmptyTranscript   ErrorCode = "empty_transcript"
	ErrCodeUnsupportedFormat ErrorCode = "unsupported_format"
	ErrCodeCancelled         ErrorCode = "cancelled"
	ErrCodeInternal          ErrorCode = "internal"
)

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrCodeParse: {
		Code:            ErrCodeParse,
		Description:     "Timestamp could not be parsed",
		SuggestedAction: "Use H:MM:SS, MM:SS or plain seconds; inspect skipped rows with: audiencia ingest <file>",
	},
	ErrCodeDuplicateSpeaker: {
		Code:            ErrCodeDuplicateSpeaker,
		Description:     "Speaker name already registered",
		SuggestedAction: "Pick a different name or rename the existing speaker: audiencia export --rename Old=New",
	},
	ErrCodeSpeakerNotFound: {
		Code:            ErrCodeSpeakerNotFound,
		Description:     "Speaker is not part of the loaded transcript",
		SuggestedAction: "List known speakers: audiencia speakers <file>",
	},
	ErrCodeRecordNotFound: {
		Code:            ErrCodeRecordNotFound,
		Description:     "Dialogue record id does not exist",
		SuggestedAction: "List record ids: audiencia show <file>",
	},
	ErrCodeCaseNotFound: {
		Code:            ErrCodeCaseNotFound,
		Description:     "Case number is not configured",
		SuggestedAction: "List configured cases: audiencia cases",
	},
	ErrCodeEmptyTranscript: {
		Code:            ErrCodeEmptyTranscript,
		Description:     "Transcript has no usable rows",
		SuggestedAction: "Check the file contains a non-empty \"transcription\" array",
	},
	ErrCodeUnsupportedFormat: {
		Code:            ErrCodeUnsupportedFormat,
		Description:     "Input or output format is not supported",
		SuggestedAction: "Use .json, .vtt or .txt transcripts and text, json or yaml output",
	},
	ErrCodeCancelled: {
		Code:            ErrCodeCancelled,
		Description:     "Operation cancelled by user or system",
		SuggestedAction: "Re-run the command if the interruption was not intentional",
	},
	ErrCodeInternal: {
		Code:            ErrCodeInternal,
		Description:     "Unclassified error",
		SuggestedAction: "Re-run with --debug for more details",
	},
}

// Sentinels for conditions that have no typed error.
var (
	ErrEmptyTranscript   = errors.New("transcript has no usable rows")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Classify maps an error to its ErrorCode.
func Classify(err error) ErrorCode {
	var (
		pe *ParseError
		de *DuplicateSpeakerError
		ne *NotFoundError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	case errors.As(err, &pe):
		return ErrCodeParse
	case errors.As(err, &de):
		return ErrCodeDuplicateSpeaker
	case errors.As(err, &ne):
		switch ne.Kind {
		case KindRecord:
			return ErrCodeRecordNotFound
		case KindCase:
			return ErrCodeCaseNotFound
		default:
			return ErrCodeSpeakerNotFound
		}
	case errors.Is(err, ErrEmptyTranscript):
		return ErrCodeEmptyTranscript
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	default:
		return ErrCodeInternal
	}
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for more details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
