package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		ErrCodeParse,
		ErrCodeDuplicateSpeaker,
		ErrCodeSpeakerNotFound,
		ErrCodeRecordNotFound,
		ErrCodeCaseNotFound,
		ErrCodeEmptyTranscript,
		ErrCodeUnsupportedFormat,
		ErrCodeCancelled,
		ErrCodeInternal,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code, "Registry entry should have matching code")
			assert.NotEmpty(t, info.Description)
			assert.NotEmpty(t, info.SuggestedAction)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"parse", fmt.Errorf("row 3: %w", &ParseError{Input: "x", Reason: "bad"}), ErrCodeParse},
		{"duplicate", &DuplicateSpeakerError{Name: "A"}, ErrCodeDuplicateSpeaker},
		{"speaker missing", &NotFoundError{Kind: KindSpeaker, Key: "A"}, ErrCodeSpeakerNotFound},
		{"record missing", &NotFoundError{Kind: KindRecord, Key: "9"}, ErrCodeRecordNotFound},
		{"case missing", &NotFoundError{Kind: KindCase, Key: "0001"}, ErrCodeCaseNotFound},
		{"empty", fmt.Errorf("load: %w", ErrEmptyTranscript), ErrCodeEmptyTranscript},
		{"format", fmt.Errorf("read .pdf: %w", ErrUnsupportedFormat), ErrCodeUnsupportedFormat},
		{"cancelled", context.Canceled, ErrCodeCancelled},
		{"other", fmt.Errorf("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestGetSuggestedAction(t *testing.T) {
	for code := range ErrorCodeRegistry {
		action := GetSuggestedAction(code)
		assert.True(t, len(action) > 10, "Action for %s should be meaningful (>10 chars)", code)
	}

	assert.Contains(t, GetSuggestedAction("unknown_code"), "--debug")
}

func TestGetDescription(t *testing.T) {
	assert.Equal(t, "Timestamp could not be parsed", GetDescription(ErrCodeParse))
	assert.Equal(t, "Unknown error", GetDescription("unknown_code"))
}
