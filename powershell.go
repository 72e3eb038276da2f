package winrm

import (
	"encoding/base64"
	"unicode/utf16"
)

// encodePowerShellCommand converts script into the base64(UTF-16LE) form
// powershell.exe -EncodedCommand expects.
func encodePowerShellCommand(script string) string {
	codeUnits := utf16.Encode([]rune(script))
	buf := make([]byte, len(codeUnits)*2)
	for i, u := range codeUnits {
		buf[i*2] = byte(u)
		buf[i*2+1] = byte(u >> 8)
	}
	return base64.StdEncoding.EncodeToString(buf)
}
