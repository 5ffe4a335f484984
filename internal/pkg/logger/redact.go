package logger

import (
	"regexp"
	"strings"
)

// Eight or more digits, optionally '+'-prefixed and separated by spaces,
// dots or dashes, is treated as a phone number.
var phoneRegex = regexp.MustCompile(`\+?\d(?:[ .\-]?\d){7,}`)

// Keys whose values are identifiers, not phone numbers. Telegram chat ids
// are long enough to look like one.
var idKeys = map[string]bool{
	"session":   true,
	"chat_id":   true,
	"update_id": true,
	"offset":    true,
	"job":       true,
	"holder":    true,
}

func isPhoneKey(key string) bool {
	key = strings.ToLower(key)
	return strings.Contains(key, "phone") || strings.Contains(key, "number")
}

func redactPIIValue(key, val string) string {
	if isPhoneKey(key) {
		return RedactPhone(val)
	}
	if idKeys[strings.ToLower(key)] {
		return val
	}
	return phoneRegex.ReplaceAllStringFunc(val, RedactPhone)
}

// RedactPhone masks a phone number for safe logging, keeping the last four
// digits: "+6281234567890" → "***7890". Values with four digits or fewer
// are fully masked.
func RedactPhone(number string) string {
	var digits []byte
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	if len(digits) <= 4 {
		return "***"
	}
	return "***" + string(digits[len(digits)-4:])
}
