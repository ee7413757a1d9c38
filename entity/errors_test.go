package entity

import (
	"fmt"
	"strings"
	"testing"
)

func TestUserMessageMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrUnsupportedLink, "can't handle that link"},
		{fmt.Errorf("resolve: %w", ErrUnsupportedLink), "can't handle that link"},
		{fmt.Errorf("http 500: %w", ErrDownloadFailed), "Downloading the video failed"},
		{ErrExtractionFailed, "Extracting the audio track failed"},
		{ErrDeliveryFailed, "sending it failed"},
		{ErrInternal, "Something went wrong"},
		{fmt.Errorf("totally unknown"), "Something went wrong"},
	}

	for _, tt := range tests {
		got := UserMessage(tt.err)
		if !strings.Contains(got, tt.want) {
			t.Errorf("UserMessage(%v) = %q, want it to mention %q", tt.err, got, tt.want)
		}
	}
}
