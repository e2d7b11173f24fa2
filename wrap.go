package joinz

import "context"

// WrapName is the name of the wrapping post-processor.
const WrapName Name = "wrap"

// DefaultWrap is used when no wrap delimiter is configured.
const DefaultWrap = "("

// WrapOptions are the options understood by Wrap. They follow the rules of
// QuoteOptions with DefaultWrap as the fallback delimiter.
type WrapOptions struct {
	Arg      any `mapstructure:"arg"`
	Mirror   any `mapstructure:"mirror"`
	WrapWith any `mapstructure:"wrapWith"`
}

// Wrap surrounds the rendered string with a delimiter, mirrored by default.
func Wrap(_ context.Context, s string, opts Options) (string, error) {
	var wo WrapOptions
	if err := opts.Decode(&wo); err != nil {
		return "", err
	}
	open, closing := delimiters(wo.Arg, wo.WrapWith, DefaultWrap, mirrored(opts, wo.Mirror))
	return open + s + closing, nil
}
