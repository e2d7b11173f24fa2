package joinz

import (
	"context"
	"fmt"
)

// QuoteName is the name of the quoting pre-processor.
const QuoteName Name = "quote"

// DefaultQuote is used when no quote delimiter is configured.
const DefaultQuote = "'"

// MirrorField switches delimiter mirroring for Quote and Wrap.
const MirrorField = "mirror"

// QuoteOptions are the options understood by Quote. A string Arg takes
// precedence over QuoteWith, so joinz.Settings{"quote": `"`} works. Only a
// non-empty string is used as a delimiter; any other QuoteWith falls back to
// DefaultQuote. Mirror is read by truthiness and defaults to on.
type QuoteOptions struct {
	Arg       any `mapstructure:"arg"`
	Mirror    any `mapstructure:"mirror"`
	QuoteWith any `mapstructure:"quoteWith"`
}

// Quote surrounds every element of a sequence with a delimiter. With mirror
// on (the default) the closing delimiter is the mirrored opening one, so "("
// quotes as "(x)" and "<<" as "<<x>>". Scalars and mappings are left alone.
func Quote(_ context.Context, data *Data, opts Options) error {
	if data.Shape != SequenceShape {
		return nil
	}

	var qo QuoteOptions
	if err := opts.Decode(&qo); err != nil {
		return err
	}
	open, closing := delimiters(qo.Arg, qo.QuoteWith, DefaultQuote, mirrored(opts, qo.Mirror))

	for i, item := range data.Items {
		data.Items[i] = fmt.Sprintf("%s%v%s", open, item, closing)
	}
	return nil
}

// delimiters works out the opening and closing delimiter shared by Quote and
// Wrap. A string arg wins over with; an empty arg selects the fallback.
func delimiters(arg, with any, fallback string, mirror bool) (string, string) {
	delim := fallback
	if s, ok := with.(string); ok && s != "" {
		delim = s
	}
	if s, ok := arg.(string); ok {
		delim = s
		if s == "" {
			delim = fallback
		}
	}
	if mirror {
		return delim, MirrorString(delim)
	}
	return delim, delim
}

// mirrored reports whether the closing delimiter should be mirrored. An
// absent mirror field means on; an explicit nil means off.
func mirrored(opts Options, mirror any) bool {
	if _, ok := opts.Field(MirrorField); !ok {
		return true
	}
	return truthy(mirror)
}
