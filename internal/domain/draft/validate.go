package draft

import (
	"strings"
	"unicode/utf8"

	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/pkg/errorx"
)

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func validateRequired(value, field string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errorx.New(errorx.BadRequest, "%s must not be empty", field)
	}

	if length(value) > max {
		return "", errorx.New(errorx.BadRequest, "%s is too long (max %d characters)", field, max)
	}

	return value, nil
}

// parseDistricts splits a comma separated list, drops empty entries and
// keeps at most max entries.
func parseDistricts(value string, limits config.DraftConfigs) ([]string, error) {
	districts := []string{}
	for _, d := range strings.Split(value, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}

		if length(d) > limits.MaxFieldLength {
			return nil, errorx.New(errorx.BadRequest,
				"District name is too long (max %d characters)", limits.MaxFieldLength)
		}

		districts = append(districts, d)
	}

	if len(districts) == 0 {
		return nil, errorx.New(errorx.BadRequest, "Specify at least one district")
	}

	if len(districts) > limits.MaxDistricts {
		districts = districts[:limits.MaxDistricts]
	}

	return districts, nil
}

func validatePhone(value string, limits config.DraftConfigs) (string, error) {
	phone := strings.TrimSpace(value)
	if length(phone) < limits.MinPhoneLength || length(phone) > limits.MaxFieldLength {
		return "", errorx.New(errorx.BadRequest, "The phone number is not valid, try again")
	}

	for _, r := range phone {
		if (r < '0' || r > '9') && !strings.ContainsRune("+-() ", r) {
			return "", errorx.New(errorx.BadRequest, "The phone number is not valid, try again")
		}
	}

	return phone, nil
}

// NormalizeInstagram drops a leading "@".
func NormalizeInstagram(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(value), "@")
}

// NormalizeTelegram prefixes "@" unless the value already is a handle or a
// t.me link.
func NormalizeTelegram(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "@") || strings.HasPrefix(value, "https://t.me/") {
		return value
	}

	return "@" + value
}
