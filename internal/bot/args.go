package bot

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/trixlive/backend/pkg/errorx"
)

type userArgs struct {
	UserID int64  `mapstructure:"user_id"`
	Reason string `mapstructure:"reason"`
}

type muteArgs struct {
	UserID   int64  `mapstructure:"user_id"`
	Duration string `mapstructure:"duration"`
	Reason   string `mapstructure:"reason"`
}

type wordArgs struct {
	Word        string `mapstructure:"word"`
	Description string `mapstructure:"description"`
}

type topArgs struct {
	Size int `mapstructure:"size"`
}

// decodeArgs assigns the whitespace separated arguments to keys in order,
// the last key taking the rest of the line, and decodes them into out. The
// first required keys must be present.
func decodeArgs(args string, required int, out any, usage string, keys ...string) error {
	values := map[string]any{}
	rest := strings.TrimSpace(args)
	for i, key := range keys {
		if rest == "" {
			break
		}

		if i == len(keys)-1 {
			values[key] = rest
			break
		}

		var value string
		value, rest, _ = strings.Cut(rest, " ")
		values[key] = value
		rest = strings.TrimSpace(rest)
	}

	if len(values) < required {
		return errorx.New(errorx.BadRequest, "Usage: %s", usage)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(values); err != nil {
		return errorx.New(errorx.BadRequest, "Usage: %s", usage)
	}

	return nil
}
