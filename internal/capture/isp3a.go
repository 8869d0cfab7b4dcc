package capture

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ISP3A payload limits. The payload buffer is 256 bytes including the NUL
// terminator, so at most 255 characters of text are carried.
const (
	ISP3ABufferSize = 256
	ISP3AMaxText    = ISP3ABufferSize - 1
)

// FormatISP3A renders the ISP 3A command text "3A <command_id> <camera_id> <extra_args>".
//
// extraArgs ends at its first NUL byte, if any, so the payload size is
// always the text length plus the terminator.
//
// The returned text never exceeds ISP3AMaxText bytes. When the full
// rendering is longer, the text is cut to the limit, backing off to the
// start of a UTF-8 sequence so a multi-byte character is never split, and a
// *TruncationError reports how many bytes were dropped. The terminator is
// not part of the returned string.
func FormatISP3A(cameraID, commandID int, extraArgs string) (string, error) {
	if i := strings.IndexByte(extraArgs, 0); i >= 0 {
		extraArgs = extraArgs[:i]
	}

	text := fmt.Sprintf("3A %d %d %s", commandID, cameraID, extraArgs)
	if len(text) <= ISP3AMaxText {
		return text, nil
	}

	cut := ISP3AMaxText
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], &TruncationError{
		Limit:   ISP3AMaxText,
		Dropped: len(text) - cut,
	}
}
