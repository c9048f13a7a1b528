package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr error
	}{
		{name: "text only", msg: Message{Body: strPtr("hi")}},
		{name: "file only", msg: Message{FileURL: strPtr("https://bucket/images/a.png"), Type: TypeImage}},
		{name: "text and file", msg: Message{Body: strPtr("look"), FileURL: strPtr("https://bucket/images/a.png")}},
		{name: "neither", msg: Message{}, wantErr: ErrEmptyMessage},
		{name: "empty strings", msg: Message{Body: strPtr(""), FileURL: strPtr("")}, wantErr: ErrEmptyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
