package chart

// Option configures a Chart.
type Option func(*options)

type options struct {
	popLimit           int
	beamAndThreshold   bool
	beamSize           int
	relativeThreshold  float64
	trueOOVsOnly       bool
	markOOVs           bool
	defaultNonterminal string
	constrainParse     bool
	usePOSLabels       bool
	goalSymbol         string
	maxNodes           int
}

func defaultOptions() options {
	return options{
		beamSize:           30,
		relativeThreshold:  10,
		defaultNonterminal: "[X]",
		goalSymbol:         "[GOAL]",
	}
}

// WithPopLimit enables span-level cube pruning with at most n pops per span.
// Zero disables it.
func WithPopLimit(n int) Option {
	return func(o *options) {
		o.popLimit = n
	}
}

// WithBeamAndThreshold enables cube pruning per dot node when no pop limit
// is set: at most size pops per dot node, and nothing scoring more than
// threshold below the best entry of the cell.
func WithBeamAndThreshold(enabled bool, size int, threshold float64) Option {
	return func(o *options) {
		o.beamAndThreshold = enabled
		o.beamSize = size
		o.relativeThreshold = threshold
	}
}

// WithTrueOOVsOnly restricts pass-through rules to words no grammar knows.
func WithTrueOOVsOnly(enabled bool) Option {
	return func(o *options) {
		o.trueOOVsOnly = enabled
	}
}

// WithMarkOOVs suffixes the target side of pass-through rules with "_OOV".
func WithMarkOOVs(enabled bool) Option {
	return func(o *options) {
		o.markOOVs = enabled
	}
}

// WithDefaultNonterminal sets the left-hand side of pass-through rules.
func WithDefaultNonterminal(label string) Option {
	return func(o *options) {
		o.defaultNonterminal = label
	}
}

// WithConstrainParse restricts left-hand sides to the reference parse labels
// of each span.
func WithConstrainParse(enabled bool) Option {
	return func(o *options) {
		o.constrainParse = enabled
	}
}

// WithPOSLabels labels pass-through rules with the reference parse's
// preterminals.
func WithPOSLabels(enabled bool) Option {
	return func(o *options) {
		o.usePOSLabels = enabled
	}
}

// WithGoalSymbol names the symbol a full-span entry must carry.
func WithGoalSymbol(label string) Option {
	return func(o *options) {
		o.goalSymbol = label
	}
}

// WithMaxNodes aborts the parse with ErrExhausted once more than n nodes
// have been created. Zero means no limit.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}
